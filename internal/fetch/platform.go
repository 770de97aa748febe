// Package fetch - platform.go provides ATS platform detection and
// platform-specific form selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known applicant tracking system.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the ATS platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)

	// Greenhouse patterns
	if strings.Contains(host, "greenhouse.io") ||
		strings.Contains(host, "boards.greenhouse.io") {
		return PlatformGreenhouse
	}

	// Lever patterns
	if strings.Contains(host, "lever.co") ||
		strings.Contains(host, "jobs.lever.co") {
		return PlatformLever
	}

	// Workday patterns
	if strings.Contains(host, "workday.com") ||
		strings.Contains(host, "myworkdayjobs.com") {
		return PlatformWorkday
	}

	return PlatformUnknown
}

// PlatformFormSelectors returns application form selectors for a specific platform.
func PlatformFormSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{
			"#application-form", // Primary Greenhouse selector
			".application--container",
			".application--wrapper",
			"#main_fields",
			"form",
		}
	case PlatformLever:
		return []string{
			".application-form",
			".lever-application-form",
			".posting-apply",
			"form",
		}
	case PlatformWorkday:
		return []string{
			"[data-automation-id='applyFlowPage']",
			"[data-automation-id='formField']",
			".WDAF",
			"form",
		}
	default:
		return ApplicationFormSelectors()
	}
}

// PlatformNeedsBrowser reports whether a platform is known to render its
// application form client-side, so a plain HTTP fetch returns an empty shell.
func PlatformNeedsBrowser(platform Platform) bool {
	switch platform {
	case PlatformWorkday, PlatformLever:
		return true
	default:
		return false
	}
}
