package util

import "github.com/spf13/viper"

// Defaults for the image pipeline and name collation.
// max dimensions match the sizes the record views render at.
const (
	DefaultMaxDimHD    = 1280
	DefaultMaxDimThumb = 200
	DefaultWorkers     = 2
	DefaultLocale      = "und"
)

// GetMaxDimHD returns the configured cap for the high-resolution variant
func GetMaxDimHD() int {
	if v := viper.GetInt("max-dim-hd"); v > 0 {
		return v
	}
	return DefaultMaxDimHD
}

// GetMaxDimThumb returns the configured cap for the thumbnail variant
func GetMaxDimThumb() int {
	if v := viper.GetInt("max-dim-thumb"); v > 0 {
		return v
	}
	return DefaultMaxDimThumb
}

// GetWorkers returns the configured image pipeline worker count
func GetWorkers() int {
	if v := viper.GetInt("workers"); v > 0 {
		return v
	}
	return DefaultWorkers
}

// GetLocale returns the BCP 47 tag used for patient name collation.
// "und" selects the root collation order.
func GetLocale() string {
	if v := viper.GetString("locale"); v != "" {
		return v
	}
	return DefaultLocale
}
