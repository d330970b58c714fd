package imagepkg

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/youruser/certgen/internal/cert"
)

// fontCandidates lists, per style, the font files tried in order.
var fontCandidates = map[string][]string{
	cert.StyleRegular:     {"arial.ttf", "DejaVuSans.ttf", "FreeSans.ttf"},
	cert.StyleBold:        {"arialbd.ttf", "DejaVuSans-Bold.ttf", "FreeSerifBold.ttf"},
	cert.StyleItalic:      {"ariali.ttf", "DejaVuSans-Oblique.ttf", "FreeSansOblique.ttf"},
	cert.StyleBoldItalic:  {"arialbi.ttf", "DejaVuSans-BoldOblique.ttf", "FreeSansBoldOblique.ttf"},
	cert.StyleTimes:       {"times.ttf", "DejaVuSerif.ttf", "FreeSerif.ttf"},
	cert.StyleTimesBold:   {"timesbd.ttf", "DejaVuSerif-Bold.ttf", "FreeSerifBold.ttf"},
	cert.StyleCourier:     {"cour.ttf", "DejaVuSansMono.ttf", "FreeMono.ttf"},
	cert.StyleCourierBold: {"courbd.ttf", "DejaVuSansMono-Bold.ttf", "FreeMonoBold.ttf"},
}

// builtinFonts are the embedded Go fonts used when no candidate file loads.
var builtinFonts = map[string][]byte{
	cert.StyleRegular:     goregular.TTF,
	cert.StyleBold:        gobold.TTF,
	cert.StyleItalic:      goitalic.TTF,
	cert.StyleBoldItalic:  gobolditalic.TTF,
	cert.StyleTimes:       goregular.TTF,
	cert.StyleTimesBold:   gobold.TTF,
	cert.StyleCourier:     gomono.TTF,
	cert.StyleCourierBold: gomonobold.TTF,
}

// DefaultFontDirs are searched when no directories are configured.
var DefaultFontDirs = []string{
	"fonts",
	"/usr/share/fonts/truetype/dejavu",
	"/usr/share/fonts/truetype/freefont",
	"/usr/share/fonts/TTF",
	"/usr/share/fonts/dejavu",
	"/Library/Fonts",
	`C:\Windows\Fonts`,
}

// FontResolver maps a style name to a parsed font. Lookups are cached and
// safe for concurrent use.
type FontResolver struct {
	dirs []string

	mu    sync.Mutex
	fonts map[string]*opentype.Font
}

// NewFontResolver searches dirs in order for each candidate file. With no
// dirs only the embedded fonts are used.
func NewFontResolver(dirs []string) *FontResolver {
	return &FontResolver{dirs: dirs, fonts: map[string]*opentype.Font{}}
}

// Font returns the parsed font for style. Unknown styles resolve like Bold.
func (r *FontResolver) Font(style string) *opentype.Font {
	if _, ok := fontCandidates[style]; !ok {
		style = cert.DefaultStyle
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.fonts[style]; ok {
		return f
	}
	f := r.load(style)
	r.fonts[style] = f
	return f
}

func (r *FontResolver) load(style string) *opentype.Font {
	for _, name := range fontCandidates[style] {
		for _, dir := range r.dirs {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			f, err := opentype.Parse(data)
			if err != nil {
				log.Printf("font %s in %s unusable: %v", name, dir, err)
				continue
			}
			return f
		}
	}
	f, err := opentype.Parse(builtinFonts[style])
	if err != nil {
		// embedded fonts always parse
		panic(err)
	}
	return f
}

// Face returns a face for style at size pixels (72 DPI, so points equal
// pixels). It never fails: a face that cannot be built at the requested
// size falls back to the embedded Bold font.
func (r *FontResolver) Face(style string, size int) font.Face {
	if size <= 0 {
		size = 72
	}
	opts := &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingNone}
	face, err := opentype.NewFace(r.Font(style), opts)
	if err == nil {
		return face
	}
	log.Printf("font face %q at %dpx: %v, using built-in", style, size, err)
	f, _ := opentype.Parse(gobold.TTF)
	face, _ = opentype.NewFace(f, opts)
	return face
}
