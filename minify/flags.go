package minify

import (
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v3"

	"csscover/common"
)

// Flags returns fresh set of optimize command flags. Flags keep parsing state,
// so every command needs its own set.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write optimized stylesheet to `FILE` instead of STDOUT"},
		&cli.IntFlag{Name: "gzip", Aliases: []string{"g"},
			Usage: "measure cost as compressed size at `LEVEL` (1-9), 0 measures raw size",
			Validator: func(v int) error {
				if v < 0 || v > 9 {
					return fmt.Errorf("compression level %d is out of range 0-9", v)
				}
				return nil
			}},
		&cli.StringFlag{Name: "compressor",
			Usage: "compression `ALGORITHM` used for cost when level is above 0 (supported: " + strings.Join(common.CompressorNames(), ", ") + ")",
			Validator: func(v string) error {
				_, err := common.ParseCompressor(strings.ToLower(v))
				return err
			}},
		&cli.Uint64Flag{Name: "seed", Usage: "random `SEED` for reproducible results, 0 picks one"},
		&cli.IntFlag{Name: "generations", Usage: "stop after `N` generations, 0 means no limit"},
		&cli.IntFlag{Name: "population", Usage: "number of coverings in each generation"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "evaluate offspring with `N` parallel workers"},
		&cli.DurationFlag{Name: "time-limit", Usage: "stop search after `DURATION` and keep best result so far"},
		&cli.StringFlag{Name: "charset",
			Usage: "force `ENCODING` for stylesheets without BOM and for non UTF-8 names in archives (see IANA.org for character set names)"},
	}
}

// HelpTemplate describes sources accepted by optimize command.
var HelpTemplate = fmt.Sprintf(`%s
SOURCE:
    one or more stylesheets, concatenated in the order given:
        path to a file: "[path_to_file]file.css"
        path to a directory: "[path_to_directory]directory" - all css files under directory in natural order
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - all css files under archive path
        "-" - read stylesheet from STDIN

	Stylesheets are decoded using byte order mark, forced --charset or
	@charset rule, in this order, UTF-8 is assumed otherwise. Optimized
	result is always UTF-8.
`, cli.CommandHelpTemplate)
