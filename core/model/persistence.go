package model

import (
	"encoding/gob"
	"io"
	"os"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// SaveModel gob-encodes model into filename, truncating any existing file.
//
//	err := model.SaveModel(bundle, "output/model.gob")
func SaveModel(model interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return scigoErrors.Wrapf(err, "create %s", filename)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = scigoErrors.Wrapf(cerr, "close %s", filename)
		}
	}()

	return SaveModelToWriter(model, file)
}

// LoadModel decodes a gob file into model, which must be a pointer.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return scigoErrors.Wrapf(err, "open %s", filename)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter gob-encodes model into w.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return scigoErrors.Wrap(err, "encode model")
	}
	return nil
}

// LoadModelFromReader decodes a gob stream into model.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return scigoErrors.Wrap(err, "decode model")
	}
	return nil
}
