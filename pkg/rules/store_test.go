package rules

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(filepath.Join(t.TempDir(), "rules.json"))
	require.NoError(t, err)
	return s
}

func TestOpenSeedsDefaults(t *testing.T) {
	s := tempStore(t)

	require.Len(t, s.Rules, 12)
	assert.Equal(t, "rule-1", s.Rules[0].ID)
	assert.Equal(t, "task contains 'Adil'", s.Rules[0].If)
	for _, r := range s.Rules {
		assert.True(t, r.Enabled, "default rule %s should be enabled", r.ID)
		assert.NotEmpty(t, r.Then, "default rule %s should have effects", r.ID)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	s, err := OpenPath(path)
	require.NoError(t, err)

	s.Add(model.Rule{ID: "custom", If: "task contains 'demo'", Then: model.Properties{"label": "@Demo"}, Enabled: true})
	require.NoError(t, s.Save())

	reloaded, err := OpenPath(path)
	require.NoError(t, err)
	require.Len(t, reloaded.Rules, 13)

	got, ok := reloaded.Get("custom")
	require.True(t, ok)
	assert.Equal(t, "task contains 'demo'", got.If)
	assert.Equal(t, "@Demo", got.Then["label"])
}

func TestSetEnabled(t *testing.T) {
	s := tempStore(t)

	require.True(t, s.SetEnabled("rule-1", false))
	got, _ := s.Get("rule-1")
	assert.False(t, got.Enabled)

	assert.False(t, s.SetEnabled("no-such-rule", true))
}

func TestUpdateAndRemove(t *testing.T) {
	s := tempStore(t)

	updated := model.Rule{If: "task contains 'changed'", Then: model.Properties{"project": "X"}, Enabled: true}
	require.True(t, s.Update("rule-2", updated))
	got, _ := s.Get("rule-2")
	assert.Equal(t, "rule-2", got.ID, "update must keep the id stable")
	assert.Equal(t, "task contains 'changed'", got.If)

	require.True(t, s.Remove("rule-3"))
	_, ok := s.Get("rule-3")
	assert.False(t, ok)
	assert.Len(t, s.Rules, 11)

	assert.False(t, s.Update("ghost", updated))
	assert.False(t, s.Remove("ghost"))
}

func TestSaveIsNoOpWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	s, err := OpenPath(path)
	require.NoError(t, err)
	require.NoError(t, s.Save()) // seeded defaults are dirty

	reloaded, err := OpenPath(path)
	require.NoError(t, err)
	// a clean store writes nothing; Save succeeds without touching disk
	require.NoError(t, reloaded.Save())
	again, err := OpenPath(path)
	require.NoError(t, err)
	assert.Equal(t, reloaded.Rules, again.Rules)
}

func TestListOrderIsPrecedenceOrder(t *testing.T) {
	s := tempStore(t)
	s.Add(model.Rule{ID: "z-last", If: "overdue", Then: model.Properties{}, Enabled: true})
	assert.Equal(t, "z-last", s.Rules[len(s.Rules)-1].ID)
}
