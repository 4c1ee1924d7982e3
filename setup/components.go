package setup

import "path/filepath"

// StarcraftComponent is the community-packaged engine bundle with BWAPI
// 4.4.0 preinstalled.
func StarcraftComponent(baseDir string) *Component {
	return &Component{
		Name:         "Starcraft 1.16.1",
		DownloadName: "scbw_bwapi440.zip",
		DownloadURL:  "http://www.cs.mun.ca/~dchurchill/startcraft/scbw_bwapi440.zip",
		Hashes: []string{
			// Original packaging.
			"c7fb49e6c170270192aba1610f25105bf077a52e556b7a4e684484079fa9fa93",
			// Repack after 2023-01-25, bwapi.ini was modified.
			"4546155ecfebd50f72dc407041ec0b65282aefdf083e58f96c29f55b75eb0c0e",
		},
		InternalDir: filepath.Join(baseDir, "scbw"),
	}
}

// JavaComponent is a 32-bit Java 8 JRE matching the 32-bit engine process.
func JavaComponent(baseDir string) *Component {
	return &Component{
		Name:         "Java 8 JRE",
		DownloadName: "jre.zip",
		DownloadURL:  "https://github.com/adoptium/temurin8-binaries/releases/download/jdk8u362-b09/OpenJDK8U-jre_x86-32_windows_hotspot_8u362b09.zip",
		Hashes: []string{
			"ab1c3756c0f94e982edf77e7048263d2c7fc1048c57dd1185e5f441f007e9653",
		},
		InternalDir: filepath.Join(baseDir, "jre"),
		StripRoot:   true,
	}
}

// JavaExecutable is the launcher binary inside a provided JRE directory.
func JavaExecutable(jreDir string) string {
	return filepath.Join(jreDir, "bin", "javaw.exe")
}
