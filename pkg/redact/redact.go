// Package redact masks personally identifiable information in event
// logs before they leave a trusted environment. Emails, phone numbers,
// person names and addresses are replaced with tags; business document
// numbers are replaced with deterministic salted hashes so referential
// integrity across events survives redaction.
//
// All redactions are deterministic: same input and salt, same output.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/checkflow/checkflow/internal/model"
)

// Mode selects how aggressively to redact.
type Mode string

const (
	// ModeRawLocal performs no redaction; for internal use only.
	ModeRawLocal Mode = "raw_local"
	// ModeShareable performs full redaction, safe for sharing.
	ModeShareable Mode = "shareable"
)

// Config controls redaction behavior.
type Config struct {
	Mode Mode

	// HashDocNumbers replaces business document numbers with salted
	// hashes instead of leaving them intact.
	HashDocNumbers bool

	// Salt keys the deterministic hash.
	Salt string
}

// DefaultConfig is the shareable-mode configuration.
func DefaultConfig() Config {
	return Config{
		Mode:           ModeShareable,
		HashDocNumbers: true,
		Salt:           "checkflow",
	}
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Phone patterns require separators so plain 10-digit document numbers
// are not claimed as phone numbers.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`),
	regexp.MustCompile(`\(\d{3}\)[-.\s]?\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\b\d{3}[-.\s]\d{3}[-.\s]\d{4}\b`),
	regexp.MustCompile(`\b0\d{2,4}\s\d{3,8}\b`),
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:Mr\.?|Mrs\.?|Ms\.?|Dr\.?|Prof\.?)\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`),
	regexp.MustCompile(`(?i)\b(?:Contact|Attn|Attention|Signed|Approved by|Requested by|Created by):\s*[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`),
}

var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Za-z0-9\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Court|Ct|Way|Place|Pl)\.?\s*,?\s*[A-Za-z\s]+,?\s*[A-Z]{2}\s*\d{5}(?:-\d{4})?\b`),
	regexp.MustCompile(`(?i)\b(?:P\.?O\.?\s*Box|Postfach)\s*\d+\b`),
}

// Document numbers: plain 10-digit ids and prefixed forms (SO/DO/DL/IV/
// PO/PR/SA + 8-10 digits), as issued by common ERP systems.
var (
	plainDocPattern    = regexp.MustCompile(`\b\d{10}\b`)
	prefixedDocPattern = regexp.MustCompile(`\b(SO|DO|DL|IV|PO|PR|SA)(\d{8,10})\b`)
)

// Stats counts redactions performed.
type Stats struct {
	Emails     int
	Phones     int
	Names      int
	Addresses  int
	DocNumbers int
	Total      int
}

// Redactor masks sensitive data in text and events. Safe for concurrent
// use; the hash cache is internally locked.
type Redactor struct {
	cfg Config

	mu    sync.Mutex
	stats Stats
	cache map[string]string
}

// New creates a redactor.
func New(cfg Config) *Redactor {
	if cfg.Salt == "" {
		cfg.Salt = DefaultConfig().Salt
	}
	return &Redactor{cfg: cfg, cache: make(map[string]string)}
}

// NewShareable creates a redactor with full redaction enabled.
func NewShareable(salt string) *Redactor {
	cfg := DefaultConfig()
	if salt != "" {
		cfg.Salt = salt
	}
	return New(cfg)
}

// Text redacts sensitive information from a string.
func (r *Redactor) Text(text string) string {
	if text == "" || r.cfg.Mode == ModeRawLocal {
		return text
	}

	// Hash document numbers first so phone patterns cannot claim them.
	result := text
	if r.cfg.HashDocNumbers {
		result = prefixedDocPattern.ReplaceAllStringFunc(result, func(m string) string {
			sub := prefixedDocPattern.FindStringSubmatch(m)
			r.count(&r.stats.DocNumbers)
			return sub[1] + r.hash(sub[2])
		})
		result = plainDocPattern.ReplaceAllStringFunc(result, func(m string) string {
			r.count(&r.stats.DocNumbers)
			return r.hash(m)
		})
	}

	result = emailPattern.ReplaceAllStringFunc(result, func(string) string {
		r.count(&r.stats.Emails)
		return "[EMAIL]"
	})

	for _, p := range phonePatterns {
		result = p.ReplaceAllStringFunc(result, func(string) string {
			r.count(&r.stats.Phones)
			return "[PHONE]"
		})
	}

	for _, p := range namePatterns {
		result = p.ReplaceAllStringFunc(result, func(m string) string {
			r.count(&r.stats.Names)
			if idx := strings.Index(m, ":"); idx > 0 {
				return m[:idx] + ": [NAME]"
			}
			return "[NAME]"
		})
	}

	for _, p := range addressPatterns {
		result = p.ReplaceAllStringFunc(result, func(string) string {
			r.count(&r.stats.Addresses)
			return "[ADDRESS]"
		})
	}

	return result
}

// Event returns a redacted copy of an event. Activity names are left
// intact: they are model vocabulary, not payload.
func (r *Redactor) Event(ev model.Event) model.Event {
	if r.cfg.Mode == ModeRawLocal {
		return ev
	}

	out := ev
	out.Resource = r.Text(ev.Resource)
	out.CaseID = r.Text(ev.CaseID)

	if len(ev.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(ev.Attributes))
		for k, v := range ev.Attributes {
			out.Attributes[k] = r.Text(v)
		}
	}

	return out
}

// Log returns a redacted copy of a whole log.
func (r *Redactor) Log(log model.Log) model.Log {
	if r.cfg.Mode == ModeRawLocal {
		return log
	}

	out := make(model.Log, len(log))
	for i, cs := range log {
		events := make([]model.Event, len(cs.Events))
		for j, ev := range cs.Events {
			events[j] = r.Event(ev)
		}
		out[i] = model.Case{ID: r.Text(cs.ID), Events: events}
	}
	return out
}

// Stats returns a snapshot of the redaction counters.
func (r *Redactor) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// hash produces the deterministic replacement for a document number.
func (r *Redactor) hash(value string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[value]; ok {
		return cached
	}

	sum := sha256.Sum256([]byte(r.cfg.Salt + ":" + value))
	tag := fmt.Sprintf("[DOC_%s]", strings.ToUpper(hex.EncodeToString(sum[:4])))
	r.cache[value] = tag
	return tag
}

func (r *Redactor) count(counter *int) {
	r.mu.Lock()
	*counter++
	r.stats.Total++
	r.mu.Unlock()
}
