package models

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppVersion describes a released mobile build. At most one active version
// exists per platform; mobile clients poll the public version-check
// endpoint against it.
type AppVersion struct {
	ID                      primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Platform                string             `json:"platform" bson:"platform"` // "android" or "ios"
	Version                 string             `json:"version" bson:"version"`
	BuildNumber             int                `json:"buildNumber" bson:"buildNumber"`
	IsForceUpdate           bool               `json:"isForceUpdate" bson:"isForceUpdate"`
	IsActive                bool               `json:"isActive" bson:"isActive"`
	UpdateURL               string             `json:"updateUrl" bson:"updateUrl"`
	ReleaseNotes            string             `json:"releaseNotes" bson:"releaseNotes"`
	ReleaseDate             time.Time          `json:"releaseDate" bson:"releaseDate"`
	MinimumSupportedVersion string             `json:"minimumSupportedVersion" bson:"minimumSupportedVersion"`
	Features                []string           `json:"features,omitempty" bson:"features,omitempty"`
	BugFixes                []string           `json:"bugFixes,omitempty" bson:"bugFixes,omitempty"`
	DownloadSize            string             `json:"downloadSize,omitempty" bson:"downloadSize,omitempty"`
	TargetSDKVersion        int                `json:"targetSdkVersion,omitempty" bson:"targetSdkVersion,omitempty"`
	MinimumOSVersion        string             `json:"minimumOsVersion,omitempty" bson:"minimumOsVersion,omitempty"`
	CreatedAt               time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt               time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CompareVersions compares two dotted version strings numerically,
// segment by segment. Missing segments count as zero. Returns -1, 0 or 1.
func CompareVersions(v1, v2 string) int {
	p1 := strings.Split(v1, ".")
	p2 := strings.Split(v2, ".")

	n := len(p1)
	if len(p2) > n {
		n = len(p2)
	}

	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(p1) {
			a, _ = strconv.Atoi(p1[i])
		}
		if i < len(p2) {
			b, _ = strconv.Atoi(p2[i])
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

// UpdateCheck is the response of the per-client update check
type UpdateCheck struct {
	NeedsUpdate   bool        `json:"needsUpdate"`
	IsForceUpdate bool        `json:"isForceUpdate,omitempty"`
	LatestVersion *AppVersion `json:"latestVersion,omitempty"`
	Message       string      `json:"message,omitempty"`
}
