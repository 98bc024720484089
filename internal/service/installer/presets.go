package installer

import (
	"errors"
	"fmt"
	"sort"
)

// Installer URLs for the named distribution presets. The presets differ
// only in the URL passed to Run.
const (
	// MambaforgeURL is a Miniconda-like distribution optimized and
	// preconfigured for conda-forge packages, including mamba.
	MambaforgeURL = "https://github.com/jaimergp/miniforge/releases/latest/download/Mambaforge-colab-Linux-x86_64.sh"

	// MiniforgeURL is the same distribution without mamba.
	MiniforgeURL = "https://github.com/jaimergp/miniforge/releases/latest/download/Miniforge-colab-Linux-x86_64.sh"

	// MinicondaURL is Miniconda 4.5.4, the last official version built for
	// Python 3.6.
	MinicondaURL = "https://repo.anaconda.com/miniconda/Miniconda3-4.5.4-Linux-x86_64.sh"

	// AnacondaURL is Anaconda 5.2.0, the last official version built for
	// Python 3.6.
	AnacondaURL = "https://repo.anaconda.com/archive/Anaconda3-5.2.0-Linux-x86_64.sh"
)

// DefaultPreset is the preset installed when no URL or preset is given.
const DefaultPreset = "mambaforge"

var errUnknownPreset = errors.New("unknown installer preset")

// presets maps preset names to installer URLs.
//
//nolint:gochecknoglobals // Static lookup table.
var presets = map[string]string{
	"mambaforge": MambaforgeURL,
	"miniforge":  MiniforgeURL,
	"miniconda":  MinicondaURL,
	"anaconda":   AnacondaURL,
}

// PresetURL resolves a preset name to its installer URL.
func PresetURL(name string) (string, error) {
	url, ok := presets[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, errUnknownPreset)
	}

	return url, nil
}

// PresetNames returns the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
