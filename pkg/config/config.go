// Package config loads the daemon's ini-format configuration into an
// immutable Snapshot and republishes it atomically on reload. The file
// layout is a [general] block, one section per line, and one section per
// device that cross-references its line and speeddial entries by name.
package config

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Line is a directory-number endpoint a device's button can be bound
// to; each device's line reference resolves 1:1 against this table at
// load time.
type Line struct {
	Name        string
	CIDName     string
	CIDNum      string
	Context     string
	VoicemailID string
}

// SpeedDial is one programmable speed-dial button entry.
type SpeedDial struct {
	Index  uint32
	Number string
	Label  string
}

// Device is a phone's static configuration: identity, its bound line,
// the speeddials it offers, and the per-device scalars (date format,
// voicemail, keepalive, dial timeout, timezone).
type Device struct {
	Name        string // e.g. SEP0011223344
	Description string
	Line        string // resolved against Snapshot.Lines
	SpeedDials  []string
	Vendor      string
	Guest       bool // true for devices materialized from [guest], not a named section

	DateFormat  string // date template pushed in RegisterAck, e.g. "D/M/Y"
	Voicemail   string // mailbox monitored for message-waiting
	VMExten     string // extension dialed by the voicemail button
	KeepAlive   int    // seconds, 1..600; 0 means use the general default
	DialTimeout int    // seconds, 1..60; 0 means use the built-in default
	Timezone    string
}

// Per-device scalar bounds; out-of-range values are dropped with a
// warning and the default applies instead.
const (
	minKeepAlive   = 1
	maxKeepAlive   = 600
	minDialTimeout = 1
	maxDialTimeout = 60
)

// General holds daemon-wide settings.
type General struct {
	BindAddr          string
	BindPort          int
	KeepAliveInterval time.Duration
	AuthTimeout       time.Duration
	DateFormat        string
	AllowGuest        bool
	MaxGuests         int
	TOS               int // DSCP for the control socket
}

func defaultGeneral() General {
	return General{
		BindAddr:          "0.0.0.0",
		BindPort:          2000,
		KeepAliveInterval: 30 * time.Second,
		AuthTimeout:       10 * time.Second,
		DateFormat:        "M/d/Y",
		AllowGuest:        false,
		MaxGuests:         10,
	}
}

// Snapshot is a fully resolved, immutable configuration generation.
// Devices, Lines, and SpeedDials are keyed by name/index and never
// mutated after Load returns them; a reload produces a brand new
// Snapshot rather than editing this one.
type Snapshot struct {
	General    General
	Devices    map[string]*Device
	Lines      map[string]*Line
	SpeedDials map[string]*SpeedDial
}

// Store publishes Snapshots so readers never observe a partially applied
// reload; Go's GC keeps a Snapshot alive for as long as any reader holds
// it, so no explicit reference counting is needed.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Current returns the active Snapshot. Safe for concurrent use.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish atomically swaps in a newly loaded Snapshot.
func (s *Store) Publish(snap *Snapshot) {
	s.current.Store(snap)
}

var (
	lineSectionRe   = regexp.MustCompile(`^line_(.+)$`)
	deviceSectionRe = regexp.MustCompile(`^device_(.+)$`)
	speedSectionRe  = regexp.MustCompile(`^speeddial_(.+)$`)
)

// Load parses an ini-format file (or []byte/io.Reader, per ini.Load's own
// source union) into a resolved Snapshot.
func Load(source any) (*Snapshot, error) {
	file, err := ini.Load(source)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	snap := &Snapshot{
		General:    defaultGeneral(),
		Devices:    make(map[string]*Device),
		Lines:      make(map[string]*Line),
		SpeedDials: make(map[string]*SpeedDial),
	}

	if gs, err := file.GetSection("general"); err == nil {
		applyGeneral(&snap.General, gs)
	}

	for _, section := range file.Sections() {
		name := section.Name()
		switch {
		case lineSectionRe.MatchString(name):
			m := lineSectionRe.FindStringSubmatch(name)
			line := &Line{
				Name:        m[1],
				CIDName:     section.Key("cid_name").String(),
				CIDNum:      section.Key("cid_num").String(),
				Context:     section.Key("context").String(),
				VoicemailID: section.Key("voicemail").String(),
			}
			snap.Lines[line.Name] = line
		case speedSectionRe.MatchString(name):
			m := speedSectionRe.FindStringSubmatch(name)
			idx, err := strconv.ParseUint(section.Key("index").Value(), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("config: speeddial_%s: invalid index: %w", m[1], err)
			}
			snap.SpeedDials[m[1]] = &SpeedDial{
				Index:  uint32(idx),
				Number: section.Key("number").String(),
				Label:  section.Key("label").String(),
			}
		}
	}

	for _, section := range file.Sections() {
		name := section.Name()
		if !deviceSectionRe.MatchString(name) {
			continue
		}
		m := deviceSectionRe.FindStringSubmatch(name)
		dev := &Device{
			Name:        m[1],
			Description: section.Key("description").String(),
			Line:        section.Key("line").String(),
			Vendor:      section.Key("vendor").String(),
		}
		for _, key := range section.Key("speeddials").Strings(",") {
			dev.SpeedDials = append(dev.SpeedDials, key)
		}
		applyDeviceScalars(dev, section)
		snap.Devices[dev.Name] = dev
	}

	if snap.General.AllowGuest {
		extractGuestTemplate(file, snap)
	}

	resolveCrossReferences(snap)
	return snap, nil
}

func applyGeneral(g *General, section *ini.Section) {
	if v := section.Key("bindaddr").String(); v != "" {
		g.BindAddr = v
	}
	if v, err := section.Key("bindport").Int(); err == nil {
		g.BindPort = v
	}
	if v, err := section.Key("keepalive").Int(); err == nil {
		g.KeepAliveInterval = time.Duration(v) * time.Second
	}
	if v, err := section.Key("authtimeout").Int(); err == nil {
		g.AuthTimeout = time.Duration(v) * time.Second
	}
	if v := section.Key("dateformat").String(); v != "" {
		g.DateFormat = v
	}
	if v, err := section.Key("allowguest").Bool(); err == nil {
		g.AllowGuest = v
	}
	if v, err := section.Key("max_guests").Int(); err == nil {
		g.MaxGuests = v
	}
	if v, err := section.Key("tos").Int(); err == nil {
		g.TOS = v
	}
}

// extractGuestTemplate builds the unnamed Device template unregistered
// phones are matched against when [general] allowguest=true.
func extractGuestTemplate(file *ini.File, snap *Snapshot) {
	gs, err := file.GetSection("guest")
	if err != nil {
		return
	}
	guest := &Device{
		Guest:  true,
		Line:   gs.Key("line").String(),
		Vendor: gs.Key("vendor").String(),
	}
	applyDeviceScalars(guest, gs)
	snap.Devices[""] = guest
}

// applyDeviceScalars reads the per-device scalar keys shared by named
// device sections and the [guest] template.
func applyDeviceScalars(dev *Device, section *ini.Section) {
	dev.DateFormat = section.Key("dateformat").String()
	dev.Voicemail = section.Key("voicemail").String()
	dev.VMExten = section.Key("vmexten").String()
	dev.Timezone = section.Key("timezone").String()
	if v, err := section.Key("keepalive").Int(); err == nil {
		if v < minKeepAlive || v > maxKeepAlive {
			log.WithFields(log.Fields{"device": dev.Name, "keepalive": v}).
				Warn("config: keepalive out of range, using default")
		} else {
			dev.KeepAlive = v
		}
	}
	if v, err := section.Key("dialtimeout").Int(); err == nil {
		if v < minDialTimeout || v > maxDialTimeout {
			log.WithFields(log.Fields{"device": dev.Name, "dialtimeout": v}).
				Warn("config: dialtimeout out of range, using default")
		} else {
			dev.DialTimeout = v
		}
	}
}

// resolveCrossReferences validates each device's line and speeddial
// references against the tables just parsed. A device naming a line that
// doesn't exist, or a line already claimed by an earlier device, is
// dropped with a warning. A device naming a speeddial that doesn't
// exist just has that one reference skipped,
// since a missing speeddial button is cosmetic rather than fatal.
//
// Devices are visited in name order so that which device "wins" a
// contested line is deterministic rather than a function of Go's
// unspecified map iteration order.
func resolveCrossReferences(snap *Snapshot) {
	names := make([]string, 0, len(snap.Devices))
	for name := range snap.Devices {
		names = append(names, name)
	}
	sort.Strings(names)

	boundBy := make(map[string]string, len(snap.Lines))
	for _, name := range names {
		dev := snap.Devices[name]
		if dev.Guest {
			continue
		}
		if dev.Line != "" {
			if _, ok := snap.Lines[dev.Line]; !ok {
				log.WithFields(log.Fields{"device": name, "line": dev.Line}).
					Warn("config: device references unknown line, dropping device")
				delete(snap.Devices, name)
				continue
			}
			if owner, ok := boundBy[dev.Line]; ok {
				log.WithFields(log.Fields{"device": name, "line": dev.Line, "owner": owner}).
					Warn("config: line already bound to another device, dropping device")
				delete(snap.Devices, name)
				continue
			}
			boundBy[dev.Line] = name
		}
		kept := dev.SpeedDials[:0]
		for _, sd := range dev.SpeedDials {
			if _, ok := snap.SpeedDials[sd]; !ok {
				log.WithFields(log.Fields{"device": name, "speeddial": sd}).
					Warn("config: device references unknown speeddial, skipping")
				continue
			}
			kept = append(kept, sd)
		}
		dev.SpeedDials = kept
	}
}
