package catalog

import (
	"context"

	"github.com/resolv-libs/resolv-data/internal/index"
)

const jsbDescription = "The JSB Chorales Dataset is a collection of 382 four-part chorales by Johann " +
	"Sebastian Bach. It comes with the train, test and validation split used in " +
	"\"Harmonising Chorales by Probabilistic Inference\" (NIPS 2005)."

const jsbCitation = `@inproceedings{boulangerlewandowski2012modeling,
  author={Nicolas Boulanger-Lewandowski and Yoshua Bengio and Pascal Vincent},
  title={Modeling Temporal Dependencies in High-Dimensional Sequences: Application to Polyphonic Music Generation and Transcription},
  booktitle={Proceedings of the 29th International Conference on Machine Learning (ICML)},
  year=2012
}`

type jsbChorales struct{}

func (jsbChorales) Info() Info {
	return Info{
		Name:        "JSB Chorales",
		Version:     "1.0.0",
		Description: jsbDescription,
		Homepage:    "https://arxiv.org/pdf/2107.10388v4.pdf",
		Citation:    jsbCitation,
	}
}

func (jsbChorales) Modes() []string { return []string{"full"} }

func (jsbChorales) Sources(mode string) []RemoteSource {
	if mode != "full" {
		return nil
	}
	return []RemoteSource{{
		Filename: "jsb_chorales.zip",
		URL:      "https://drive.google.com/uc?id=1ryA77ynWH1eiUTn7tNfuvhGWmo88B1Zf&export=download",
		SHA256:   "6425acfc5a1191d11482ed50eb5f5edc0c9c24555a10cd3f81f6d54925c9d2a7",
		Archive:  true,
	}}
}

func (jsbChorales) BuildIndex(ctx context.Context, root, mode string, opts BuildOptions) (*index.Index, error) {
	scores, err := findFiles(root, ".mxml", ".mxl")
	if err != nil {
		return nil, err
	}
	sums, err := hashFiles(ctx, root, scores, opts.Workers)
	if err != nil {
		return nil, err
	}
	x := &index.Index{}
	for _, rel := range scores {
		e := index.Entry{ID: stem(rel)}
		e.SetFile("mxml", entryFile(root, opts, sums, rel))
		x.Entries = append(x.Entries, e)
	}
	return x, nil
}
