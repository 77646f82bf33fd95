// services/normalize.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tournament-join-service/models"
)

var ordinalKeys = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

var upper = cases.Upper(language.English)

// Normalizer turns backend tournament payloads into TournamentSummary values.
// It is pure: no I/O, no clock.
type Normalizer struct {
	DefaultsBaseURL string
}

func NewNormalizer(defaultsBaseURL string) *Normalizer {
	return &Normalizer{DefaultsBaseURL: strings.TrimRight(defaultsBaseURL, "/")}
}

// Normalize accepts raw or already normalized records. A TournamentSummary is returned unchanged,
// so amounts are divided exactly once however many times a record passes through here.
func (n *Normalizer) Normalize(rec models.TournamentRecord) models.TournamentSummary {
	switch t := rec.(type) {
	case models.RawTournament:
		return n.FromRaw(t)
	case *models.RawTournament:
		return n.FromRaw(*t)
	case models.TournamentSummary:
		return t
	case *models.TournamentSummary:
		return *t
	}
	return models.TournamentSummary{}
}

func (n *Normalizer) NormalizeAll(raws []models.RawTournament) []models.TournamentSummary {
	out := make([]models.TournamentSummary, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.FromRaw(raw))
	}
	return out
}

func (n *Normalizer) FromRaw(raw models.RawTournament) models.TournamentSummary {
	game := resolveGame(raw.Game)
	format := resolveFormat(firstNonEmpty(raw.Format, raw.Type))

	s := models.TournamentSummary{
		ID:                  firstNonEmpty(raw.TournamentID, raw.MongoID, raw.ID),
		Title:               firstNonEmpty(raw.Title, raw.Name),
		Game:                game,
		Format:              format,
		Status:              resolveStatus(raw.Status),
		Map:                 raw.Map,
		EntryFee:            minorToMajor(raw.EntryFee),
		PrizePool:           minorToMajor(raw.PrizePool),
		PerKillPrize:        optionalMajor(raw.PerKillPrize),
		FirstPrize:          optionalMajor(raw.FirstPrice),
		SecondPrize:         optionalMajor(raw.SecondPrice),
		ThirdPrize:          optionalMajor(raw.ThirdPrice),
		StartTime:           parseTime(raw.StartTime),
		RegistrationEndTime: parseTime(raw.RegistrationEndTime),
	}

	s.CurrentParticipants = raw.CurrentParticipants
	if s.CurrentParticipants < 0 {
		s.CurrentParticipants = 0
	}
	s.MaxParticipants = raw.MaxParticipants
	if s.MaxParticipants < s.CurrentParticipants {
		s.MaxParticipants = s.CurrentParticipants
	}

	s.PrizeDistribution = resolveDistribution(raw.PrizeDistribution)
	if len(s.PrizeDistribution) == 0 {
		s.PrizeDistribution = synthesizeDistribution(raw.FirstPrice, raw.SecondPrice, raw.ThirdPrice)
	}

	s.Thumbnail = firstNonEmpty(raw.Thumbnail, raw.ThumbnailURL)
	if s.Thumbnail == "" {
		s.Thumbnail = n.DefaultThumbnail(raw.Game, format)
	}
	return s
}

// DefaultThumbnail picks one of four images by PUBG-or-not and solo-or-team.
func (n *Normalizer) DefaultThumbnail(rawGame string, format models.Format) string {
	gameKey := "bgmi"
	if strings.Contains(strings.ToUpper(rawGame), "PUBG") {
		gameKey = "pubg"
	}
	formatKey := "team"
	if format == models.FormatSolo {
		formatKey = "solo"
	}
	return fmt.Sprintf("%s/%s.jpg", n.DefaultsBaseURL, slug.Make(gameKey+" "+formatKey))
}

func resolveGame(raw string) models.Game {
	if strings.Contains(strings.ToUpper(raw), "PUBG") {
		return models.GamePUBGMobile
	}
	return models.GameBGMI
}

// resolveFormat falls back to SQUAD, which accepts any roster of 1 to 4.
func resolveFormat(raw string) models.Format {
	switch models.Format(upper.String(strings.TrimSpace(raw))) {
	case models.FormatSolo:
		return models.FormatSolo
	case models.FormatDuo:
		return models.FormatDuo
	}
	return models.FormatSquad
}

func resolveStatus(raw string) models.TournamentStatus {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return models.StatusApproved
	case raw == "open":
		return models.StatusRegistrationOpen
	}
	return models.TournamentStatus(upper.String(raw))
}

func resolveDistribution(raw json.RawMessage) []models.PrizeEntry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	switch raw[0] {
	case '[':
		var list []models.PrizeEntry
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		return cleanDistribution(list)
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil
		}
		// Ordinal names beat numeric keys for the same position.
		keys := make([]string, 0, len(keyed))
		for key := range keyed {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			oi, oj := isOrdinalKey(keys[i]), isOrdinalKey(keys[j])
			if oi != oj {
				return oi
			}
			return keys[i] < keys[j]
		})

		entries := make([]models.PrizeEntry, 0, len(keyed))
		for _, key := range keys {
			pos := positionForKey(key)
			if pos == 0 {
				continue
			}
			amount, ok := numberValue(keyed[key])
			if !ok {
				continue
			}
			entries = append(entries, models.PrizeEntry{Position: pos, Amount: minorToMajor(amount)})
		}
		return cleanDistribution(entries)
	}
	return nil
}

// cleanDistribution sorts by position, drops duplicate positions and negative amounts,
// and fills empty labels.
func cleanDistribution(entries []models.PrizeEntry) []models.PrizeEntry {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	seen := make(map[int]bool, len(entries))
	out := make([]models.PrizeEntry, 0, len(entries))
	for _, e := range entries {
		if e.Position <= 0 || e.Amount < 0 || seen[e.Position] {
			continue
		}
		seen[e.Position] = true
		if strings.TrimSpace(e.Label) == "" {
			e.Label = PlaceLabel(e.Position)
		}
		out = append(out, e)
	}
	return out
}

func synthesizeDistribution(first, second, third float64) []models.PrizeEntry {
	var out []models.PrizeEntry
	for i, amount := range []float64{first, second, third} {
		if amount <= 0 {
			continue
		}
		pos := i + 1
		out = append(out, models.PrizeEntry{Position: pos, Amount: minorToMajor(amount), Label: PlaceLabel(pos)})
	}
	return out
}

// PlaceLabel renders "1ST PLACE", "2ND PLACE", "11TH PLACE", ...
func PlaceLabel(pos int) string {
	suffix := "th"
	if pos%100 < 11 || pos%100 > 13 {
		switch pos % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return upper.String(fmt.Sprintf("%d%s place", pos, suffix))
}

func isOrdinalKey(key string) bool {
	_, ok := ordinalKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

func positionForKey(key string) int {
	key = strings.ToLower(strings.TrimSpace(key))
	if pos, ok := ordinalKeys[key]; ok {
		return pos
	}
	if pos, err := strconv.Atoi(key); err == nil && pos > 0 {
		return pos
	}
	return 0
}

// numberValue reads a JSON number or a numeric string.
func numberValue(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func minorToMajor(minor float64) float64 {
	return math.Round(minor) / 100
}

func optionalMajor(minor float64) *float64 {
	if minor <= 0 {
		return nil
	}
	v := minorToMajor(minor)
	return &v
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
