// Package widgets describes the embeddable widgets: which loader script
// mounts which embed page, the postMessage vocabulary between host page and
// iframe, and the per-widget session state machine.
package widgets

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindFeedback          Kind = "feedback"
	KindChangelogPopup    Kind = "changelog-popup"
	KindChangelogDropdown Kind = "changelog-dropdown"
	KindAnnouncementBar   Kind = "announcement-bar"
)

var ErrUnknownKind = errors.New("unknown widget kind")

// Persistence says where a host page remembers the last dismissed entry.
type Persistence string

const (
	PersistNone      Persistence = "none"
	PersistSession   Persistence = "session"
	PersistPermanent Persistence = "permanent"
)

type Frame string

const (
	FrameOverlay  Frame = "overlay"  // full viewport modal, mounted only while visible
	FrameLauncher Frame = "launcher" // bottom-right button box, grows to a panel while open
	FramePanel    Frame = "panel"    // fixed 400x520
	FrameBanner   Frame = "banner"   // 44px top bar, pushes body down
)

// Spec is the static description of one widget kind.
type Spec struct {
	Kind           Kind
	Script         string
	Required       []string
	Optional       []string
	ContentBearing bool
	Persistence    Persistence
	Frame          Frame
	Sentinel       string
	Global         string
}

var specs = []Spec{
	{
		Kind:        KindFeedback,
		Script:      "widget.js",
		Required:    []string{"org"},
		Persistence: PersistNone,
		Frame:       FrameLauncher,
		Sentinel:    "boardly:feedback:close",
		Global:      "BoardlyFeedback",
	},
	{
		Kind:           KindChangelogPopup,
		Script:         "changelog-popup.js",
		Required:       []string{"org"},
		ContentBearing: true,
		Persistence:    PersistSession,
		Frame:          FrameOverlay,
		Sentinel:       "boardly:changelog-popup:close",
		Global:         "BoardlyChangelogPopup",
	},
	{
		Kind:           KindChangelogDropdown,
		Script:         "changelog-dropdown.js",
		Required:       []string{"org"},
		Optional:       []string{"target"},
		ContentBearing: true,
		Persistence:    PersistNone,
		Frame:          FramePanel,
		Sentinel:       "boardly:changelog-dropdown:close",
		Global:         "BoardlyChangelogDropdown",
	},
	{
		Kind:           KindAnnouncementBar,
		Script:         "announcement-bar.js",
		Required:       []string{"org"},
		Optional:       []string{"link"},
		ContentBearing: true,
		Persistence:    PersistPermanent,
		Frame:          FrameBanner,
		Sentinel:       "boardly:announcement-bar:dismiss",
		Global:         "BoardlyAnnouncementBar",
	},
}

func Kinds() []Spec {
	return append([]Spec(nil), specs...)
}

func Lookup(kind Kind) (Spec, error) {
	for _, s := range specs {
		if s.Kind == kind {
			return s, nil
		}
	}
	return Spec{}, ErrUnknownKind
}

// ByScript finds the widget served by a loader path such as "/widget.js".
func ByScript(path string) (Spec, error) {
	name := strings.TrimPrefix(path, "/")
	for _, s := range specs {
		if s.Script == name {
			return s, nil
		}
	}
	return Spec{}, ErrUnknownKind
}

func (s Spec) EmbedPath() string { return "/embed/" + string(s.Kind) }

func (s Spec) StatePath() string { return s.EmbedPath() + "/state" }

func (s Spec) FrameID() string { return "boardly-" + string(s.Kind) }

// Attributes lists required then optional data-* names, without the prefix.
func (s Spec) Attributes() []string {
	out := make([]string, 0, len(s.Required)+len(s.Optional))
	out = append(out, s.Required...)
	return append(out, s.Optional...)
}

// Permanent reports whether a dismissal ends the widget for that entry.
func (s Spec) Permanent() bool { return s.Persistence == PersistPermanent }
