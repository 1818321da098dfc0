package store

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"github.com/lodastack/log"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/model"
)

const (
	bucket = "test-bucket"
	key    = "test-key"
	value  = "mdzz123"
)

func Test_OpenCloseStore(t *testing.T) {
	s := mustNewStore(t)
	defer os.RemoveAll(s.Path())

	if err := s.Open(); err != nil {
		t.Fatalf("failed to open store: %s", err.Error())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %s", err.Error())
	}
	// closing twice is harmless
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store again: %s", err.Error())
	}
}

func Test_CreateRemoveBucket(t *testing.T) {
	s := mustOpenStore(t)
	defer os.RemoveAll(s.Path())
	defer s.Close()

	if err := s.CreateBucket([]byte(bucket)); err != nil {
		t.Fatalf("failed to create bucket: %s", err.Error())
	}
	if err := s.CreateBucket([]byte(bucket)); err == nil {
		t.Fatalf("create an existing bucket should fail")
	}
	if err := s.CreateBucketIfNotExist([]byte(bucket)); err != nil {
		t.Fatalf("failed to create bucket if not exist: %s", err.Error())
	}
	if err := s.RemoveBucket([]byte(bucket)); err != nil {
		t.Fatalf("failed to remove bucket: %s", err.Error())
	}
	if _, err := s.View([]byte(bucket), []byte(key)); !errors.Is(err, common.ErrBucketNotFound) {
		t.Fatalf("view removed bucket should fail with bucket not found, got: %v", err)
	}
}

func Test_SetGetKey(t *testing.T) {
	s := mustOpenStore(t)
	defer os.RemoveAll(s.Path())
	defer s.Close()

	if err := s.CreateBucket([]byte(bucket)); err != nil {
		t.Fatalf("failed to create bucket: %s", err.Error())
	}
	if err := s.Update([]byte(bucket), []byte(key), []byte(value)); err != nil {
		t.Fatalf("failed to update key: %s", err.Error())
	}

	// twice: from bolt, then from cache
	for i := 0; i < 2; i++ {
		v, err := s.View([]byte(bucket), []byte(key))
		if err != nil {
			t.Fatalf("failed to get key: %s", err.Error())
		}
		if string(v) != value {
			t.Fatalf("unexpected results for get: %s - %s ", string(v), value)
		}
	}

	if err := s.Update([]byte(bucket), []byte(key), []byte("changed")); err != nil {
		t.Fatalf("failed to update key: %s", err.Error())
	}
	if v, _ := s.View([]byte(bucket), []byte(key)); string(v) != "changed" {
		t.Fatalf("update should invalidate cache, got: %s", string(v))
	}

	if err := s.Remove([]byte(bucket), []byte(key)); err != nil {
		t.Fatalf("failed to remove key: %s", err.Error())
	}
	if v, err := s.View([]byte(bucket), []byte(key)); err != nil || v != nil {
		t.Fatalf("removed key should be nil, got: %s %v", string(v), err)
	}
}

func Test_BatchViews(t *testing.T) {
	s := mustOpenStore(t)
	defer os.RemoveAll(s.Path())
	defer s.Close()

	if err := s.CreateBucket([]byte(bucket)); err != nil {
		t.Fatalf("failed to create bucket: %s", err.Error())
	}
	rows := []model.Row{
		{Bucket: []byte(bucket), Key: []byte("grafana|defaultGrafana"), Value: []byte("a")},
		{Bucket: []byte(bucket), Key: []byte("grafana|defaultAuswertung"), Value: []byte("b")},
		{Bucket: []byte(bucket), Key: []byte("other|x"), Value: []byte("c")},
	}
	if err := s.Batch(rows); err != nil {
		t.Fatalf("failed to batch: %s", err.Error())
	}
	if err := s.Batch(nil); !errors.Is(err, common.ErrInvalidParam) {
		t.Fatalf("empty batch should fail with invalid param, got: %v", err)
	}
	if err := s.Batch([]model.Row{{Bucket: []byte("nope"), Key: []byte("k"), Value: []byte("v")}}); !errors.Is(err, common.ErrBucketNotFound) {
		t.Fatalf("batch into missing bucket should fail, got: %v", err)
	}

	got, err := s.Views([]byte(bucket), []byte("grafana|"))
	if err != nil {
		t.Fatalf("failed to views: %s", err.Error())
	}
	if len(got) != 2 || string(got["grafana|defaultGrafana"]) != "a" || string(got["grafana|defaultAuswertung"]) != "b" {
		t.Fatalf("unexpected views result: %v", got)
	}
}

func Test_Backup(t *testing.T) {
	s := mustOpenStore(t)
	defer os.RemoveAll(s.Path())
	defer s.Close()

	if err := s.CreateBucket([]byte(bucket)); err != nil {
		t.Fatalf("failed to create bucket: %s", err.Error())
	}
	data, err := s.Backup()
	if err != nil {
		t.Fatalf("failed to backup: %s", err.Error())
	}
	if len(data) == 0 {
		t.Fatalf("backup should not be empty")
	}
}

func mustOpenStore(t *testing.T) *Store {
	s := mustNewStore(t)
	if err := s.Open(); err != nil {
		t.Fatalf("failed to open store: %s", err.Error())
	}
	return s
}

func mustNewStore(t *testing.T) *Store {
	path := mustTempDir()
	var err error
	model.LogBackend, err = log.NewFileBackend(path)
	if err != nil {
		t.Fatalf("new store error: create logger fail at %s, error: %s", path, err.Error())
	}
	s := New(path)
	if s == nil {
		panic("failed to create new store")
	}
	return s
}

func mustTempDir() string {
	path, err := ioutil.TempDir("", "meterboard-test-")
	if err != nil {
		panic("failed to create temp dir")
	}
	return path
}
