// Package seed provides helpers to create demo data for development. Every
// record goes through the service layer, so seeded data obeys the same rules
// as data created by users.
package seed

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"crwn/internal/onboarding"
	"crwn/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "crwn-demo-123"

var (
	styles = []string{
		"twist out", "wash and go", "silk press", "box braids", "bantu knots",
		"faux locs", "high puff", "finger coils", "tapered cut", "cornrows",
		"flexi rod set", "big chop", "protective style", "blowout", "crochet braids",
	}

	hairTags = []string{
		"curls", "coils", "naturalhair", "wash day", "moisture", "growth",
		"braids", "locs", "protective", "definition", "edges", "scalp care",
	}

	captions = []string{
		"Day %d of this %s and it is still holding up.",
		"Tried a %[2]s for the first time. %[1]d hours well spent.",
		"My %[2]s routine in %[1]d steps.",
		"%[1]d weeks of length retention and this %[2]s.",
	}
)

// Factory builds seed inputs from a gofakeit source.
type Factory struct {
	faker   *gofakeit.Faker
	catalog *onboarding.Catalog
}

// NewFactory returns a factory. A zero seed picks a random one.
func NewFactory(seed int64, catalog *onboarding.Catalog) *Factory {
	if catalog == nil {
		catalog = onboarding.DefaultCatalog()
	}
	return &Factory{faker: gofakeit.New(seed), catalog: catalog}
}

// SignUp builds the i-th account. E-mails embed i, so they never collide.
func (f *Factory) SignUp(i int, userType string) service.SignUpInput {
	first, last := f.faker.FirstName(), f.faker.LastName()
	handle := fmt.Sprintf("%s.%s%d", clip(letters(first), 10), clip(letters(last), 12), i)
	in := service.SignUpInput{
		Email:    handle + "@crwn.test",
		Password: DefaultPassword,
		FullName: first + " " + last,
		Username: handle,
		Location: f.faker.City() + ", " + f.faker.StateAbr(),
		UserType: userType,
		HairType: f.pick(optionIDs(f.catalog.HairTypes)),
		Porosity: f.pick(optionIDs(f.catalog.Porosity)),
	}
	for _, g := range f.catalog.Goals {
		if f.faker.Bool() {
			in.HairGoals = append(in.HairGoals, g)
		}
	}
	return in
}

// Bio returns a short profile bio.
func (f *Factory) Bio(stylist bool) string {
	if stylist {
		return fmt.Sprintf("Licensed stylist in %s. Specialising in %s and %s.",
			f.faker.City(), f.pick(styles), f.pick(styles))
	}
	return f.faker.Sentence(f.faker.Number(6, 14))
}

// Post builds a post by userID with one to three generated photos.
func (f *Factory) Post(userID uint, stylistID *uint) service.CreatePostInput {
	style := f.pick(styles)
	title := fmt.Sprintf(f.pick(captions), f.faker.Number(2, 12), style)

	images := make([][]byte, f.faker.Number(1, 3))
	for i := range images {
		images[i] = f.Swatch(64, 64)
	}

	tags := []string{style}
	for i := f.faker.Number(1, 3); i > 0; i-- {
		tags = append(tags, f.pick(hairTags))
	}

	return service.CreatePostInput{
		UserID:      userID,
		Title:       title,
		Description: f.faker.Paragraph(1, 2, 12, " "),
		StylistID:   stylistID,
		Tags:        tags,
		Images:      images,
		Private:     f.faker.Number(1, 10) == 1,
	}
}

// Swatch returns a PNG filled with a random warm colour.
func (f *Factory) Swatch(w, h int) []byte {
	c := color.RGBA{
		R: uint8(f.faker.Number(90, 255)),
		G: uint8(f.faker.Number(40, 180)),
		B: uint8(f.faker.Number(20, 140)),
		A: 255,
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// Chance reports true with probability percent/100.
func (f *Factory) Chance(percent int) bool {
	return f.faker.Number(1, 100) <= percent
}

// Intn returns a value in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

func (f *Factory) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[f.Intn(len(options))]
}

// letters lower-cases s and drops everything outside a-z.
func letters(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(s))
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func optionIDs(opts []onboarding.Option) []string {
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return ids
}
