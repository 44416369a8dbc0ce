package web

import "sync"

var (
	verMu     sync.RWMutex
	ver       = "dev"
	verCommit = "unknown"
	verBuild  = "unknown"
)

// SetVersionInfo records the build identification reported by /api/status.
// Called once from main before the server starts.
func SetVersionInfo(versionStr, commit, buildTime string) {
	verMu.Lock()
	defer verMu.Unlock()
	ver = versionStr
	verCommit = commit
	verBuild = buildTime
}

// GetVersionInfo returns the recorded version, commit and build time
func GetVersionInfo() (string, string, string) {
	verMu.RLock()
	defer verMu.RUnlock()
	return ver, verCommit, verBuild
}
