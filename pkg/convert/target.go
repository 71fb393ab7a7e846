// Package convert re-encodes decoded text into a target encoding.
package convert

import (
	"strings"

	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/errors"
)

// Target is an output encoding.
type Target string

const (
	TargetUTF8BOM  Target = detect.NameUTF8BOM
	TargetUTF8     Target = detect.NameUTF8
	TargetShiftJIS Target = detect.NameShiftJIS
)

// DefaultTarget is used when no target is configured.
const DefaultTarget = TargetUTF8BOM

var targetAliases = map[string]Target{
	"utf-8-bom": TargetUTF8BOM,
	"utf8bom":   TargetUTF8BOM,
	"utf8-bom":  TargetUTF8BOM,
	"utf-8-sig": TargetUTF8BOM,
	"utf-8":     TargetUTF8,
	"utf8":      TargetUTF8,
	"shift_jis": TargetShiftJIS,
	"shift-jis": TargetShiftJIS,
	"sjis":      TargetShiftJIS,
	"cp932":     TargetShiftJIS,
}

// SupportedTargets lists the canonical target names.
func SupportedTargets() []string {
	return []string{string(TargetUTF8BOM), string(TargetUTF8), string(TargetShiftJIS)}
}

// ParseTarget resolves a target name. An empty name yields DefaultTarget.
func ParseTarget(s string) (Target, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultTarget, nil
	}
	if t, ok := targetAliases[key]; ok {
		return t, nil
	}
	return "", errors.UnsupportedTarget(s, SupportedTargets())
}

// Candidate returns the detection candidate describing bytes in this target.
func (t Target) Candidate() detect.Candidate {
	s, err := detect.DefaultRegistry.Get(string(t))
	if err != nil {
		return detect.Candidate{Name: string(t), Label: string(t)}
	}
	return s.Candidate()
}

// Matches reports whether a detected candidate already is this target.
func (t Target) Matches(c detect.Candidate) bool {
	return detect.IsTarget(c, string(t))
}

func (t Target) String() string {
	return string(t)
}
