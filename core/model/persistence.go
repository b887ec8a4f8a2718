package model

import (
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/loangate/pkg/errors"
)

// SaveSnapshot はスナップショットをJSONファイルに保存する
// 一時ファイルに書き込んでからリネームするため、読み手が途中の状態を見ることはない
//
// 使用例:
//
//	snap := result.Snapshot
//	err := model.SaveSnapshot(snap, "model.json")
func SaveSnapshot(s *Snapshot, filename string) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer os.Remove(tmp.Name())

	if err := SaveSnapshotToWriter(s, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close snapshot file")
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrapf(err, "failed to move snapshot into %s", filename)
	}
	return nil
}

// LoadSnapshot はJSONファイルからスナップショットを読み込む
// ファイルが存在しない場合は ErrSnapshotNotFound を返す
func LoadSnapshot(filename string) (*Snapshot, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrSnapshotNotFound, "open %s", filename)
		}
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()
	return LoadSnapshotFromReader(f)
}

// SaveSnapshotToWriter はスナップショットをio.Writerに保存する
func SaveSnapshotToWriter(s *Snapshot, w io.Writer) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write snapshot")
	}
	return nil
}

// LoadSnapshotFromReader はio.Readerからスナップショットを読み込む
func LoadSnapshotFromReader(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot")
	}
	return SnapshotFromJSON(data)
}
