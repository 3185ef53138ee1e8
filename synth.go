// synth.go: Configuration synthesis from a template and supplied values
//
// Synthesis is pure: text and values in, text out. Reading the template,
// writing the result and fixing ownership happen in the plugin layer.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"fmt"
	"log/slog"
	"strings"
)

// Anchors marking the end of the user-editable section of wp-config.php.
// Older samples use the first wording, current ones the second.
var Anchors = []string{
	"/* That's all, stop editing! Happy blogging. */",
	"/* That's all, stop editing! Happy publishing. */",
}

// ProxyShim makes WordPress treat requests forwarded by a TLS-terminating
// proxy as HTTPS.
const ProxyShim = `if (isset($_SERVER['HTTP_X_FORWARDED_PROTO']) && $_SERVER['HTTP_X_FORWARDED_PROTO'] == 'https') {
    $_SERVER['HTTPS'] = 'on';
    $_SERVER['SERVER_PORT'] = 443;
}`

// Template is the document synthesis starts from.
type Template struct {
	Path    string
	Content string
	// Existed is true when Content came from an existing wp-config.php
	// rather than the sample.
	Existed bool
}

// Result is the synthesized document and what was done to produce it.
type Result struct {
	Content           string
	Assignments       []Assignment
	ProxyShimInserted bool
	Anchor            string
}

// Synthesizer turns a Template and Values into a final configuration.
type Synthesizer struct {
	settings []Setting
	generate SecretFunc
	logger   *slog.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithSettings replaces the default setting catalog.
func WithSettings(settings []Setting) SynthesizerOption {
	return func(s *Synthesizer) { s.settings = settings }
}

// WithSecretFunc replaces the secret generator, mostly for tests.
func WithSecretFunc(fn SecretFunc) SynthesizerOption {
	return func(s *Synthesizer) { s.generate = fn }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) { s.logger = logger }
}

// NewSynthesizer creates a Synthesizer using DefaultSettings and
// GenerateSecret unless overridden.
func NewSynthesizer(opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		settings: DefaultSettings(),
		generate: GenerateSecret,
		logger:   discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the catalog this Synthesizer applies.
func (s *Synthesizer) Settings() []Setting {
	return s.settings
}

// Synthesize produces the final configuration. On error nothing is
// returned and the caller must not write anything.
func (s *Synthesizer) Synthesize(tmpl Template, values Values) (*Result, error) {
	assignments, err := Resolve(s.settings, values, tmpl.Existed, s.generate)
	if err != nil {
		return nil, err
	}

	// the shim goes in before substitution so inserted values never shift
	// the marker offset
	anchor, at, err := findAnchor(tmpl.Content)
	if err != nil {
		return nil, err
	}

	result := &Result{Assignments: assignments, Anchor: anchor}
	doc := tmpl.Content
	if !tmpl.Existed && !hasShimBefore(doc, at) {
		doc = doc[:at] + ProxyShim + "\n\n" + doc[at:]
		result.ProxyShimInserted = true
		s.logger.Debug("proxy shim inserted", "anchor", anchor)
	}

	for _, a := range assignments {
		if a.Action == ActionKeep {
			s.logger.Debug("keeping existing value", "setting", a.Setting.Name)
			continue
		}
		switch a.Setting.Kind {
		case KindVariable:
			doc, err = SetVariable(doc, a.Setting.Name, a.Value)
		default:
			doc, err = SetDefine(doc, a.Setting.Name, a.Value)
		}
		if err != nil {
			return nil, err
		}
		s.logger.Debug("setting applied", "setting", a.Setting.Name, "action", a.Action.String())
	}

	result.Content = doc
	return result, nil
}

// findAnchor returns the single anchor comment in doc and its offset.
// Marker text inside a quoted value does not count.
func findAnchor(doc string) (string, int, error) {
	found, at := "", -1
	for _, a := range Anchors {
		switch offsets := commentOffsets(doc, a); {
		case len(offsets) == 0:
			continue
		case len(offsets) > 1 || found != "":
			return "", -1, newSettingError(ErrCodeMalformedTemplate, a,
				fmt.Sprintf("end-of-settings marker %q appears more than once", a))
		default:
			found, at = a, offsets[0]
		}
	}
	if found == "" {
		return "", -1, newSettingError(ErrCodeMalformedTemplate, Anchors[0],
			fmt.Sprintf("end-of-settings marker %q not found", Anchors[0]))
	}
	return found, at, nil
}

func hasShimBefore(doc string, at int) bool {
	return strings.HasSuffix(strings.TrimRight(doc[:at], " \t\r\n"), ProxyShim)
}
