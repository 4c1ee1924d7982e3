package bwapi

import (
	"fmt"
	"path/filepath"
)

// ConfigEnvVar points BWAPI at the generated ini. Newer BWAPI versions no
// longer consult the registry install path, but all of them honor this
// override, so every launch sets it.
const ConfigEnvVar = "BWAPI_CONFIG_INI"

// Tournament module environment contract: result and frame-time files land
// in the bot's write folder after the match, and the module can force a
// loss after a frame budget.
const (
	envResultsFile    = "TM_LOG_RESULTS"
	envFrameTimesFile = "TM_LOG_FRAMETIMES"
	envTimeoutAtFrame = "TM_TIME_OUT_AT_FRAME"
)

// Environ returns the environment entries for an engine process: the ini
// override plus the tournament telemetry contract. writeDir is the bot's
// bwapi-data/write folder; timeoutAtFrame of 0 disables the frame timeout.
func Environ(iniPath string, writeDir string, timeoutAtFrame int) []string {
	env := []string{
		fmt.Sprintf("%s=%s", ConfigEnvVar, iniPath),
		fmt.Sprintf("%s=%s", envResultsFile, filepath.Join(writeDir, "results.json")),
		fmt.Sprintf("%s=%s", envFrameTimesFile, filepath.Join(writeDir, "frametimes.csv")),
	}
	if timeoutAtFrame > 0 {
		env = append(env, fmt.Sprintf("%s=%d", envTimeoutAtFrame, timeoutAtFrame))
	}
	return env
}
