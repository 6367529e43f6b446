package history

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	dbpkg "github.com/dtnitsch/perf-budget/pkg/db"
)

// ParseRunID parses a run ID argument.
func ParseRunID(arg string) (int64, error) {
	runID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || runID <= 0 {
		return 0, fmt.Errorf("invalid run ID: %s", arg)
	}
	return runID, nil
}

// GetRunIDOrLatest returns the run ID from args, or the latest run if not provided
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (int64, error) {
	if c.NArg() == 0 {
		runID, err := database.LatestRunID()
		if errors.Is(err, dbpkg.ErrNoRuns) {
			return 0, fmt.Errorf("no runs found. Run 'perf-budget measure PATH...' first")
		}
		return runID, err
	}
	return ParseRunID(c.Args().First())
}
