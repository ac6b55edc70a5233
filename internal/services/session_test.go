package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"RPG-CARDS/internal/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, template string) *Session {
	t.Helper()
	store := NewSessionStore(processor.MergeOptions{})
	sess, err := store.Create(context.Background(), nil)
	require.NoError(t, err)
	if template != "" {
		require.NoError(t, sess.ApplyTemplate(context.Background(), template))
	}
	return sess
}

func TestCreateUsesDefaultForm(t *testing.T) {
	sess := newTestSession(t, "")

	snap := sess.Snapshot()
	assert.Equal(t, processor.DefaultCardForm(), snap.Form)
	assert.Equal(t, []string{"Title", "Description", "Icon"}, snap.Fields)
	assert.Empty(t, snap.Rows)
	assert.Nil(t, snap.TemplateError)
	assert.Len(t, snap.Placeholders, 3)
}

func TestTemplateEditMigratesRows(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t, `{"a": "{{A}}", "b": "{{B}}"}`)

	_, err := sess.AddRow(map[string]string{"A": "x", "B": "y"})
	require.NoError(t, err)

	require.NoError(t, sess.ApplyTemplate(ctx, `{"b": "{{B}}"}`))

	snap := sess.Snapshot()
	assert.Equal(t, []string{"B"}, snap.Fields)
	assert.Equal(t, []processor.Row{{"B": "y"}}, snap.Rows)
}

func TestInvalidTemplateHaltsPass(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t, `{"title": "{{Title}}"}`)
	_, err := sess.AddRow(map[string]string{"Title": "Goblin"})
	require.NoError(t, err)

	err = sess.ApplyTemplate(ctx, "not json")
	var parseErr *processor.TemplateParseError
	require.True(t, errors.As(err, &parseErr))

	snap := sess.Snapshot()
	assert.Equal(t, "not json", snap.Template)
	assert.NotNil(t, snap.TemplateError)
	assert.Equal(t, []string{"Title"}, snap.Fields)
	assert.Len(t, snap.Rows, 1)
	assert.Empty(t, snap.Placeholders)

	_, err = sess.Preview(ctx)
	assert.True(t, errors.As(err, &parseErr))
	_, err = sess.Paste(ctx, "Orc")
	assert.True(t, errors.As(err, &parseErr))

	// fixing the template resumes normal processing
	require.NoError(t, sess.ApplyTemplate(ctx, `{"title": "{{Title}}"}`))
	result, err := sess.Preview(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Documents, 1)
}

func TestPasteReplacesDatasetAllOrNothing(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t, `{"name": "{{Name}}", "alignment": "{{Alignment}}"}`)

	n, err := sess.Paste(ctx, "Goblin\tEvil")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []processor.Row{{"Name": "Goblin", "Alignment": "Evil"}}, sess.Snapshot().Rows)

	_, err = sess.Paste(ctx, "\"unclosed,x")
	var ingestErr *processor.IngestParseError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, []processor.Row{{"Name": "Goblin", "Alignment": "Evil"}}, sess.Snapshot().Rows)
}

func TestPastedQuoteFailsOnlyItsRow(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t, `{"name": "{{Name}}", "desc": "{{Desc}}"}`)

	n, err := sess.Paste(ctx, "Longsword\t4\" blade\nDagger\tshort")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, `4" blade`, sess.Snapshot().Rows[0]["Desc"])

	result, err := sess.Preview(ctx)
	require.NoError(t, err)
	assert.False(t, result.OK())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Index)
	require.Len(t, result.Documents, 1)
	assert.JSONEq(t, `{"name": "Dagger", "desc": "short"}`, string(result.Documents[0]))
}

func TestExportSkipsBrokenRows(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t, `{"title": "{{Title}}", "count": 2}`)

	_, err := sess.AddRow(map[string]string{"Title": "Goblin"})
	require.NoError(t, err)
	_, err = sess.AddRow(map[string]string{"Title": `say "hi"`})
	require.NoError(t, err)

	data, result, err := sess.Export(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title": "Goblin", "count": 2}]`, string(data))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
}

func TestRowEditing(t *testing.T) {
	sess := newTestSession(t, `{"title": "{{Title}}"}`)

	idx, err := sess.AddRow(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	require.NoError(t, sess.UpdateRow(0, map[string]string{"Title": "Orc"}))
	assert.Equal(t, []processor.Row{{"Title": "Orc"}}, sess.Snapshot().Rows)

	assert.True(t, errors.Is(sess.UpdateRow(3, nil), processor.ErrRowIndex))
	_, err = sess.AddRow(map[string]string{"Nope": "x"})
	assert.True(t, errors.Is(err, processor.ErrUnknownField))

	require.NoError(t, sess.DeleteRow(0))
	assert.Empty(t, sess.Snapshot().Rows)
}

func TestApplyFormVariableColor(t *testing.T) {
	sess := newTestSession(t, "")

	form := processor.DefaultCardForm()
	form.VariableColor = true
	form.Title = "Goblin"
	require.NoError(t, sess.ApplyForm(context.Background(), form))

	assert.Equal(t, []string{"Description", "Color", "Icon"}, sess.Snapshot().Fields)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(processor.MergeOptions{})

	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	old, err := store.Create(ctx, nil)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	fresh, err := store.Create(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	got, err := store.Get(fresh.ID)
	require.NoError(t, err)
	assert.Same(t, fresh, got)

	removed := store.Sweep(time.Hour)
	assert.Equal(t, 1, removed)

	_, err = store.Get(old.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	require.NoError(t, store.Delete(fresh.ID))
	assert.True(t, errors.Is(store.Delete(fresh.ID), ErrSessionNotFound))
	assert.Equal(t, 0, store.Len())
}
