package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/utils"
)

// ReceiptReader is the slice of the AI assistant the extractor needs
type ReceiptReader interface {
	ReadReceipt(ctx context.Context, image []byte, mimeType string) ([]core.Item, error)
}

// itemRe matches one list entry: a leading quantity, then the rest of
// the line. Unit detection runs on tokens afterwards, not in the regex,
// so a name like "eggs" never loses characters to a bogus unit match.
var itemRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*(.+?)\s*$`)

var listSep = regexp.MustCompile(`[,\n]`)

// Names that read as liquids when the sender typed no unit.
var liquidWords = []string{"milk", "soda", "water", "juice", "beer"}

// Service turns inbound messages into grocery items. Typed bodies go
// through the list parser; attached receipt photos go through the AI
// reader when one is configured.
type Service struct {
	reader  ReceiptReader
	fetcher *MediaFetcher
	text    *utils.TextProcessor
	logger  *zap.Logger
}

// NewService creates a new extraction service. A nil reader or fetcher
// disables receipt photos; typed lists always work.
func NewService(reader ReceiptReader, fetcher *MediaFetcher, text *utils.TextProcessor, logger *zap.Logger) *Service {
	return &Service{
		reader:  reader,
		fetcher: fetcher,
		text:    text,
		logger:  logger,
	}
}

// FromMessage extracts items from an inbound message, preferring an
// attached receipt photo over the typed body. A photo that yields
// nothing falls back to the body.
func (s *Service) FromMessage(ctx context.Context, mediaURL, body string) []core.Item {
	if mediaURL != "" {
		if items := s.fromImageURL(ctx, mediaURL); len(items) > 0 {
			return items
		}
	}
	return s.ParseText(body)
}

// FromImage extracts items from raw image bytes, for transports that
// already hold the attachment.
func (s *Service) FromImage(ctx context.Context, image []byte, mimeType string) []core.Item {
	if s.reader == nil || len(image) == 0 {
		return nil
	}
	items, err := s.reader.ReadReceipt(ctx, image, mimeType)
	if err != nil {
		s.logger.Warn("Receipt reader failed", zap.Error(err))
		return nil
	}
	return s.sanitizeRead(items)
}

// ParseText parses a typed grocery list: entries separated by commas or
// newlines, each "qty [unit] name". Entries without a recognized unit
// get one guessed from the name: eggs count by the piece, drinks pour
// by the liter, everything else weighs in by the pound.
func (s *Service) ParseText(body string) []core.Item {
	body = s.text.SanitizeUTF8(body)

	var items []core.Item
	for _, part := range splitList(body) {
		m := itemRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}

		unit, rawName, hasUnit := splitUnit(m[2])
		name := s.cleanName(rawName)
		if len(name) < 2 {
			continue
		}
		if !hasUnit {
			unit = defaultUnit(name)
		}

		items = append(items, core.Item{Name: name, Qty: qty, Unit: unit})
	}

	s.logger.Debug("Parsed grocery list", zap.Int("item_count", len(items)))
	return items
}

func (s *Service) fromImageURL(ctx context.Context, url string) []core.Item {
	if s.reader == nil || s.fetcher == nil {
		return nil
	}

	image, mimeType, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn("Failed to download receipt media", zap.Error(err), zap.String("url", url))
		return nil
	}

	return s.FromImage(ctx, image, mimeType)
}

// sanitizeRead validates AI-read items. Vision output must carry a unit
// from the closed set, a positive quantity and a usable name, or the
// line is dropped rather than guessed at.
func (s *Service) sanitizeRead(items []core.Item) []core.Item {
	var out []core.Item
	for _, it := range items {
		name := s.cleanName(it.Name)
		if len(name) < 2 || it.Qty <= 0 || !core.KnownUnit(string(it.Unit)) {
			continue
		}
		out = append(out, core.Item{
			Name: name,
			Qty:  it.Qty,
			Unit: core.NormalizeUnit(string(it.Unit)),
		})
	}
	return out
}

func (s *Service) cleanName(name string) string {
	return strings.ToLower(s.text.NormalizeSpace(s.text.FoldDiacritics(name)))
}

func splitList(body string) []string {
	var parts []string
	for _, p := range listSep.Split(body, -1) {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// splitUnit peels a leading unit token off the remainder of a parsed
// entry. Only tokens from the closed unit set count as units; anything
// else stays part of the name.
func splitUnit(rest string) (core.Unit, string, bool) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", "", false
	}
	if core.KnownUnit(fields[0]) {
		return core.NormalizeUnit(fields[0]), strings.Join(fields[1:], " "), true
	}
	return "", strings.Join(fields, " "), false
}

func defaultUnit(name string) core.Unit {
	if strings.Contains(name, "egg") {
		return core.UnitEach
	}
	for _, w := range liquidWords {
		if strings.Contains(name, w) {
			return core.UnitLiter
		}
	}
	return core.UnitLb
}
