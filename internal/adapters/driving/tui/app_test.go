package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketml/pocketrag/internal/core/domain"
	"github.com/pocketml/pocketrag/internal/core/ports/driving"
)

// fakeEngine returns a canned prompt and fixed stats.
type fakeEngine struct {
	prompt  string
	queries []string
}

var _ driving.Engine = (*fakeEngine)(nil)

func (f *fakeEngine) Ingest(context.Context, domain.IngestRequest) (*domain.IngestResult, error) {
	return nil, nil
}

func (f *fakeEngine) RetrieveContext(_ context.Context, query string, _ domain.RetrieveOptions) string {
	f.queries = append(f.queries, query)
	return f.prompt
}

func (f *fakeEngine) ListDocuments(context.Context) ([]domain.Document, error) { return nil, nil }
func (f *fakeEngine) DeleteDocument(context.Context, string) error             { return nil }

func (f *fakeEngine) Stats(context.Context) domain.IndexStats {
	return domain.IndexStats{TotalVectors: 3, Dimensions: 8, IsReady: true}
}

func (f *fakeEngine) Config() domain.Config { return domain.DefaultConfig() }
func (f *fakeEngine) UpdateConfig(context.Context, domain.ConfigPatch) (domain.Config, error) {
	return domain.DefaultConfig(), nil
}
func (f *fakeEngine) Clear(context.Context) error     { return nil }
func (f *fakeEngine) SaveIndex(context.Context) error { return nil }
func (f *fakeEngine) LoadIndex(context.Context) error { return nil }

func TestApp_EnterTriggersRetrieval(t *testing.T) {
	eng := &fakeEngine{prompt: "augmented prompt"}
	app := NewApp(eng)

	app.input.SetValue("what is paris")

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	require.NotNil(t, cmd)
	assert.True(t, app.searching)

	// Run the command and feed the message back, as bubbletea would.
	msg := cmd()
	done, ok := msg.(retrievalDone)
	require.True(t, ok)
	assert.Equal(t, "augmented prompt", done.prompt)
	assert.Equal(t, []string{"what is paris"}, eng.queries)

	model, _ = app.Update(done)
	app = model.(*App)
	assert.False(t, app.searching)
	assert.Equal(t, "augmented prompt", app.prompt)
	assert.Contains(t, app.View(), "augmented prompt")
}

func TestApp_EmptyQueryIgnored(t *testing.T) {
	app := NewApp(&fakeEngine{})

	app.input.SetValue("   ")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)

	assert.Nil(t, cmd)
	assert.False(t, app.searching)
}

func TestApp_EscQuits(t *testing.T) {
	app := NewApp(&fakeEngine{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_IdleViewShowsIndexStatus(t *testing.T) {
	app := NewApp(&fakeEngine{})
	view := app.View()
	assert.True(t, strings.Contains(view, "3 vectors"))
}
