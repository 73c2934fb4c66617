// tracetool imports trace CSV exports into SQLite and analyses how
// concurrently the recorded executions ran: per-execution overlap metrics,
// ranked per-view statistics, PCA shape analysis and charts.
package main

import (
	"fmt"
	"os"

	"github.com/banshee-data/trace.report/internal/version"
)

const usageText = `Usage: tracetool <command> [arguments]

Commands:
  import <database> <source>...      Import CSV trace data into the database
  compute-overlap <database>         Compute per-execution overlap and the
                                     active-query-count timeline
  overlap-pca <database>             Rank views by how linearly dependent
                                     duration and overlap are
  view-statistics <database>         Print per-view duration statistics (CSV)
  form-statistics <database>         Print per-form duration statistics (CSV)
  plot <config.yaml>                 Render the charts described by a YAML file
  convert-unit <value>               Convert timestamps and durations for
                                     writing manual SQL
  get-cell <file> <row> <column>     Extract one cell from a CSV file
  normalize-sql                      Normalize SQL from stdin to stdout
  build-view-sql-index <database>    Index normalized SQL per view
  match-query-view <database>        Find views matching the SQL on stdin
  migrate <database> <action>        Manage the database schema
                                     (up, down, status, force <v>, to <v>)
  version                            Print the tracetool version

Run 'tracetool <command> -h' for command-specific flags.
`

func usage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "import":
		err = runImport(args)
	case "compute-overlap":
		err = runComputeOverlap(args)
	case "overlap-pca":
		err = runOverlapPCA(args)
	case "view-statistics":
		err = runGroupStatistics(args, "view_id", "view ID")
	case "form-statistics":
		err = runGroupStatistics(args, "form_id", "form ID")
	case "plot":
		err = runPlot(args)
	case "convert-unit":
		err = runConvertUnit(args)
	case "get-cell":
		err = runGetCell(args)
	case "normalize-sql":
		err = runNormalizeSQL(args)
	case "build-view-sql-index":
		err = runBuildViewSQLIndex(args)
	case "match-query-view":
		err = runMatchQueryView(args)
	case "migrate":
		err = runMigrate(args)
	case "version":
		fmt.Printf("tracetool %s (%s, built %s)\n",
			version.Version, version.GitSHA, version.BuildTime)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tracetool %s: %v\n", command, err)
		os.Exit(1)
	}
}
