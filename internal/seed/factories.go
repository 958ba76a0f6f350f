package seed

import (
	"encoding/json"
	"fmt"
	"strings"

	"scribe/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword satisfies signup rules and is shared by every seeded user.
const DefaultPassword = "Seed1234"

// Factory builds service inputs filled with fake content.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory returns a factory. A zero seed picks a random one.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// User builds a signup request with a unique email.
func (f *Factory) User(n int) service.RegisterInput {
	first, last := f.faker.FirstName(), f.faker.LastName()
	return service.RegisterInput{
		Fullname: first + " " + last,
		Email:    fmt.Sprintf("%s.%s.%d@example.com", emailPart(first), emailPart(last), n),
		Password: DefaultPassword,
	}
}

func emailPart(name string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(name))
}

type block struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Document renders an editor document with a heading, paragraphs and
// sometimes a list.
func (f *Factory) Document() string {
	blocks := []block{{Type: "header", Data: map[string]interface{}{"text": f.faker.HipsterSentence(4), "level": 2}}}
	for i := f.faker.Number(1, 4); i > 0; i-- {
		blocks = append(blocks, block{Type: "paragraph", Data: map[string]interface{}{"text": f.faker.Paragraph(1, 4, 12, " ")}})
	}
	if f.faker.Bool() {
		items := make([]interface{}, f.faker.Number(2, 5))
		for i := range items {
			items[i] = f.faker.HipsterSentence(5)
		}
		blocks = append(blocks, block{Type: "list", Data: map[string]interface{}{"style": "unordered", "items": items}})
	}
	raw, _ := json.Marshal(map[string]interface{}{"time": f.faker.Date().UnixMilli(), "blocks": blocks})
	return string(raw)
}

// Post builds a publishable post in categoryID. Drafts skip the banner and
// description.
func (f *Factory) Post(authorID, categoryID uint, draft bool) service.PostInput {
	in := service.PostInput{
		AuthorID:   authorID,
		Title:      strings.TrimSuffix(f.faker.HipsterSentence(f.faker.Number(3, 8)), "."),
		Content:    f.Document(),
		CategoryID: &categoryID,
		Draft:      draft,
	}
	if !draft {
		in.Description = f.faker.HipsterSentence(12)
		in.Banner = fmt.Sprintf("https://picsum.photos/seed/%s/1200/600", f.faker.UUID())
	}
	return in
}

// Comment returns a comment body.
func (f *Factory) Comment() string {
	return f.faker.Sentence(f.faker.Number(4, 20))
}

// CommunityText builds a community post body.
func (f *Factory) CommunityText() string {
	return f.faker.HipsterParagraph(1, 2, 10, " ")
}

// Intn returns a number in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}
