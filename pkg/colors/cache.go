// Package colors assigns a stable Google Calendar color to each derived
// project so tasks routed by the same rule land on the calendar looking the
// same. Assignments persist across runs; when the palette runs out, the
// least recently seen project gives its color up.
package colors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	xdgAppName = "taskrules"
	cacheFile  = "project_colors.json"

	// Calendar color ids 1-11 are usable; 14 is the gray fallback for
	// tasks with no derived project.
	paletteSize  = 11
	fallbackGray = "14"
)

type ProjectState struct {
	ColorID  string    `json:"color_id"`
	LastSeen time.Time `json:"last_seen"`
}

type Cache struct {
	Path     string
	Projects map[string]*ProjectState `json:"projects"`
	dirty    bool
}

func NewCache() (*Cache, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", xdgAppName, cacheFile)

	c := &Cache{
		Path:     path,
		Projects: make(map[string]*ProjectState),
	}
	if _, err := os.Stat(path); err == nil {
		if err := c.Load(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Cache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.Projects)
}

func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(c.Projects); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// ColorID returns the color for a project, assigning one on first sight.
func (c *Cache) ColorID(project string) string {
	if project == "" {
		return fallbackGray
	}
	if state, ok := c.Projects[project]; ok {
		state.LastSeen = time.Now()
		c.dirty = true
		return state.ColorID
	}
	return c.assign(project)
}

func (c *Cache) assign(project string) string {
	used := make(map[string]bool, len(c.Projects))
	for _, s := range c.Projects {
		used[s.ColorID] = true
	}

	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.Projects[project] = &ProjectState{ColorID: id, LastSeen: time.Now()}
			c.dirty = true
			return id
		}
	}

	// Palette exhausted: recycle the color of the project seen longest ago.
	var oldest string
	var oldestTime time.Time
	for p, s := range c.Projects {
		if oldest == "" || s.LastSeen.Before(oldestTime) {
			oldest = p
			oldestTime = s.LastSeen
		}
	}
	if oldest == "" {
		return "1"
	}
	recycled := c.Projects[oldest].ColorID
	delete(c.Projects, oldest)
	c.Projects[project] = &ProjectState{ColorID: recycled, LastSeen: time.Now()}
	c.dirty = true
	return recycled
}
