package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// SaveModel は学習済みモデルを gob 形式でファイルに保存する
//
//	pca := decomposition.NewPCA(decomposition.WithNComponents(10))
//	_ = pca.Fit(X)
//	err := model.SaveModel(pca, "pca.gob")
func SaveModel(m interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create model file %s", filename)
	}
	defer file.Close()
	return SaveModelToWriter(m, file)
}

// LoadModel はファイルからモデルを読み込む。m はポインタであること
func LoadModel(m interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "open model file %s", filename)
	}
	defer file.Close()
	return LoadModelFromReader(m, file)
}

// SaveModelToWriter encodes m to w.
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "encode model")
	}
	return nil
}

// LoadModelFromReader decodes a model previously written by SaveModelToWriter.
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "decode model")
	}
	return nil
}
