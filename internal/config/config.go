// Package config loads the daemon configuration from CUE.
//
// The embedded schema supplies defaults and constraints. A user file is
// unified with it, validated as concrete, and decoded into Config.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/timelockidx/internal/engine"
	"github.com/roach88/timelockidx/internal/ir"
)

//go:embed schema.cue
var schemaCUE []byte

// Config is the decoded daemon configuration.
type Config struct {
	Listen     string   `json:"listen"`
	Database   string   `json:"database"`
	MinDelay   int64    `json:"min_delay"`
	Admin      []string `json:"admin"`
	Proposers  []string `json:"proposers"`
	Executors  []string `json:"executors"`
	Cancellers []string `json:"cancellers"`
	Log        Log      `json:"log"`
}

// Log selects the process logger.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Error reports a configuration file that failed to load or validate.
type Error struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Message)
}

// Load reads the CUE file at path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Parse("", nil)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Path: path, Message: err.Error()}
	}
	return Parse(path, src)
}

// Parse unifies src with the schema and decodes the result.
// name is used in error positions only.
func Parse(name string, src []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, &Error{Path: "schema.cue", Message: details(err)}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def
	if len(src) > 0 {
		user := ctx.CompileBytes(src, cue.Filename(name))
		if err := user.Err(); err != nil {
			return Config{}, &Error{Path: name, Message: details(err)}
		}
		value = def.Unify(user)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, &Error{Path: name, Message: details(err)}
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return Config{}, &Error{Path: name, Message: details(err)}
	}
	return cfg, nil
}

func details(err error) string {
	return cueerrors.Details(err, nil)
}

// MinDelayDuration returns MinDelay as a duration.
func (c Config) MinDelayDuration() time.Duration {
	return time.Duration(c.MinDelay) * time.Second
}

// Roles converts the role lists to engine form.
func (c Config) Roles() engine.Roles {
	return engine.Roles{
		Admin:      addresses(c.Admin),
		Proposers:  addresses(c.Proposers),
		Executors:  addresses(c.Executors),
		Cancellers: addresses(c.Cancellers),
	}
}

// addresses converts schema-validated hex strings.
func addresses(hex []string) []ir.Address {
	out := make([]ir.Address, len(hex))
	for i, h := range hex {
		out[i] = common.HexToAddress(h)
	}
	return out
}
