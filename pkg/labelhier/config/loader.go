package config

import (
	"context"
	"fmt"
	"os"

	"github.com/cognicore/labelhier/pkg/labelhier/stoplist"
	"github.com/cognicore/labelhier/pkg/labelhier/store"
)

// Stoplist represents the stopword list file.
type Stoplist struct {
	Terms []string
}

// LoadStoplist loads stopwords from a YAML file with a `terms:` list.
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	terms, err := stoplist.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &Stoplist{Terms: terms}, nil
}

// Loader builds run components from the paths in a Config.
type Loader struct {
	Config Config
	// Store, when set, contributes the stop words accepted in earlier runs.
	Store store.Store
}

// Components holds the loaded components.
type Components struct {
	Stops *stoplist.Manager
}

// Load reads the stoplist. Without a path the built-in English list is used.
// Stop words accepted into the store are added on top.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	comp := &Components{}

	if l.Config.Stoplist != "" {
		sl, err := LoadStoplist(l.Config.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stops = stoplist.NewManager(sl.Terms)
	} else {
		comp.Stops = stoplist.English()
	}

	if l.Store != nil {
		accepted, err := l.Store.Stoplist(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stored stoplist: %w", err)
		}
		for _, tok := range accepted {
			if !comp.Stops.IsStop(tok) {
				comp.Stops.Add(tok, stoplist.SourceSuggested)
			}
		}
	}

	return comp, nil
}
