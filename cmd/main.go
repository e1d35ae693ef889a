package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	rawcore "github.com/finnigan/rawcore"
	"github.com/finnigan/rawcore/search"
)

// inspectScanSummary is the per-scan row written into the metadata dump;
// deliberately thin (no mzML/mzXML emission, no SHA-1, no Base64 — spec.md
// §1 keeps those external to the core).
type inspectScanSummary struct {
	Metadata rawcore.Metadata `json:"metadata"`
	NumPeaks int              `json:"num_peaks"`
}

// inspect opens rawURI, decodes the full header chain and index tables,
// and writes <file>-metadata.json plus <file>-index.json, the RAW-file
// analogue of the teacher's convert_gsf (cmd/main.go): same phase-by-phase
// log.Println narration, same "write metadata, then write index" ordering.
func inspect(rawURI, outdirURI string) error {
	dir, file := filepath.Split(rawURI)
	if outdirURI == "" {
		outdirURI = dir
	}

	log.Println("Processing RAW:", rawURI)
	dec, err := rawcore.Open(rawURI)
	if err != nil {
		return err
	}
	defer dec.Close()

	log.Println("Building index; collating metadata")
	rh := dec.Header.RunHeader

	it, err := dec.Scans(rh.Sample.FirstScan, rh.Sample.LastScan)
	if err != nil {
		return err
	}

	summaries := make([]inspectScanSummary, 0)
	for {
		scan, err := it.Next()
		if err != nil {
			return err
		}
		if scan == nil {
			break
		}
		peaks, err := scan.Peaks(rawcore.PeakModeAuto)
		if err != nil {
			return err
		}

		md := scan.Metadata()
		if md.PrecursorMz != nil {
			intensity := rawcore.FindPeakIntensity(dec.Parent(), *md.PrecursorMz, rawcore.DefaultPeakTolerance)
			md.PrecursorIntensity = &intensity
		}

		summaries = append(summaries, inspectScanSummary{
			Metadata: md,
			NumPeaks: len(peaks),
		})
	}

	log.Println("Writing metadata")
	metaURI := filepath.Join(outdirURI, file+"-metadata.json")
	if _, err := rawcore.WriteJson(metaURI, summaries); err != nil {
		return err
	}

	log.Println("Writing run header")
	indexURI := filepath.Join(outdirURI, file+"-index.json")
	if _, err := rawcore.WriteJson(indexURI, dec.Header); err != nil {
		return err
	}

	log.Println("Finished RAW:", rawURI)

	return nil
}

// inspectTrawl finds every *.raw file under uri and inspects each in turn.
// Grounded on the teacher's convert_gsf_list (cmd/main.go), but run
// sequentially here — fanning this out through RenderRange's pond pool is
// a render-time optimization, not something inspect needs.
func inspectTrawl(uri, configURI, outdirURI string) error {
	log.Println("Searching uri:", uri)
	items := search.FindRaw(uri, configURI)
	log.Println("Number of RAW files to process:", len(items))

	for _, item := range items {
		if err := inspect(item, outdirURI); err != nil {
			return fmt.Errorf("%s: %w", item, err)
		}
	}

	return nil
}

func main() {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name: "inspect",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "raw-uri",
						Usage: "URI or pathname to a Finnigan RAW file.",
					},
					&cli.StringFlag{
						Name:  "outdir-uri",
						Usage: "URI or pathname to an output directory.",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return inspect(cCtx.String("raw-uri"), cCtx.String("outdir-uri"))
				},
			},
			{
				Name: "inspect-trawl",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "uri",
						Usage: "URI or pathname to a directory containing RAW files.",
					},
					&cli.StringFlag{
						Name:  "config-uri",
						Usage: "URI or pathname to a TileDB config file.",
					},
					&cli.StringFlag{
						Name:  "outdir-uri",
						Usage: "URI or pathname to an output directory.",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return inspectTrawl(cCtx.String("uri"), cCtx.String("config-uri"), cCtx.String("outdir-uri"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
