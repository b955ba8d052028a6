package hostctx

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Environment variables the host exports to plugin processes. The request
// string itself arrives as the process argument, not through the environment.
const (
	EnvPlugin       = "YASARA_PLUGIN"
	EnvOpSys        = "YASARA_OPSYS"
	EnvVersion      = "YASARA_VERSION"
	EnvSerialNumber = "YASARA_SERIALNUMBER"
	EnvStage        = "YASARA_STAGE"
	EnvOwner        = "YASARA_OWNER"
	EnvPermissions  = "YASARA_PERMISSIONS"
	EnvWorkDir      = "YASARA_WORKDIR"
	EnvSelection    = "YASARA_SELECTION"
	EnvCom          = "YASARA_COM"
)

// selectionSeparator joins the host's selection list into a single
// environment value.
const selectionSeparator = ","

// Snapshot captures the host application's context at plugin start. All
// fields are set once at construction and read many times over relay calls,
// so no locking is required after the snapshot is built.
type Snapshot struct {
	plugin         string
	request        string
	opsys          string
	version        string
	serialNumber   int64
	stage          string
	owner          string
	permissions    string
	workDir        string
	selection      []string
	com            string
	connectionFile string
}

// New builds a snapshot from explicit values. Used by tests and by hosts that
// hand the context over directly instead of through the environment.
func New(plugin, request, opsys, version string, serialNumber int64,
	stage, owner, permissions, workDir string, selection []string,
	com, connectionFile string) *Snapshot {
	return &Snapshot{
		plugin:         plugin,
		request:        request,
		opsys:          opsys,
		version:        version,
		serialNumber:   serialNumber,
		stage:          stage,
		owner:          owner,
		permissions:    permissions,
		workDir:        workDir,
		selection:      append([]string(nil), selection...),
		com:            com,
		connectionFile: connectionFile,
	}
}

// FromEnvironment builds a snapshot from the YASARA_* environment the host
// exports when it spawns a plugin process. Fields the host did not provide
// fall back to what the local process can observe.
func FromEnvironment(request string) *Snapshot {
	s := &Snapshot{
		plugin:      os.Getenv(EnvPlugin),
		request:     request,
		opsys:       os.Getenv(EnvOpSys),
		version:     os.Getenv(EnvVersion),
		stage:       os.Getenv(EnvStage),
		owner:       os.Getenv(EnvOwner),
		permissions: os.Getenv(EnvPermissions),
		workDir:     os.Getenv(EnvWorkDir),
		com:         os.Getenv(EnvCom),
	}

	if raw := os.Getenv(EnvSerialNumber); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			s.serialNumber = n
		}
	}

	if raw := os.Getenv(EnvSelection); raw != "" {
		for _, part := range strings.Split(raw, selectionSeparator) {
			if part = strings.TrimSpace(part); part != "" {
				s.selection = append(s.selection, part)
			}
		}
	}

	if s.opsys == "" {
		s.opsys = runtime.GOOS
	}
	if s.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			s.workDir = wd
		}
	}

	return s
}

// WithConnectionFile returns a copy of the snapshot with the kernel
// connection file path bound. The path is the one field only known after the
// kernel has started, so the snapshot is finalized with it just before the
// relay server comes up.
func (s *Snapshot) WithConnectionFile(path string) *Snapshot {
	dup := *s
	dup.selection = append([]string(nil), s.selection...)
	dup.connectionFile = path
	return &dup
}

// Plugin returns the host's plugin handle.
func (s *Snapshot) Plugin() string { return s.plugin }

// Request returns the request string the host launched the plugin with.
func (s *Snapshot) Request() string { return s.request }

// OpSys returns the host's operating system identifier.
func (s *Snapshot) OpSys() string { return s.opsys }

// Version returns the host application version.
func (s *Snapshot) Version() string { return s.version }

// SerialNumber returns the host license serial number.
func (s *Snapshot) SerialNumber() int64 { return s.serialNumber }

// Stage returns the host's plugin execution stage.
func (s *Snapshot) Stage() string { return s.stage }

// Owner returns the registered owner of the host installation.
func (s *Snapshot) Owner() string { return s.owner }

// Permissions returns the host's permission string for this plugin.
func (s *Snapshot) Permissions() string { return s.permissions }

// WorkDir returns the host's working directory.
func (s *Snapshot) WorkDir() string { return s.workDir }

// Selection returns a copy of the host's current selection list.
func (s *Snapshot) Selection() []string {
	return append([]string(nil), s.selection...)
}

// Com returns the host's communication handle.
func (s *Snapshot) Com() string { return s.com }

// ConnectionFile returns the kernel connection file path, or "" when the
// kernel has not been started.
func (s *Snapshot) ConnectionFile() string { return s.connectionFile }
