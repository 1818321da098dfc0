package source

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/lodastack/log"

	"github.com/lodastack/meterboard/common"
	"github.com/lodastack/meterboard/model"
	"github.com/lodastack/meterboard/store"
)

var (
	objectBucket  = []byte("objects")
	settingBucket = []byte("settings")
)

// Bolt keeps objects and settings in the local store.
type Bolt struct {
	s      *store.Store
	logger *log.Logger
}

// NewBolt opens the store under dir and creates its buckets.
func NewBolt(dir string) (*Bolt, error) {
	if dir == "" {
		return nil, fmt.Errorf("bolt source needs a directory: %w", common.ErrInvalidParam)
	}
	s := store.New(dir)
	if err := s.Open(); err != nil {
		return nil, err
	}
	for _, b := range [][]byte{objectBucket, settingBucket} {
		if err := s.CreateBucketIfNotExist(b); err != nil {
			s.Close()
			return nil, err
		}
	}
	return &Bolt{s: s, logger: log.New("INFO", "source", model.LogBackend)}, nil
}

func (b *Bolt) Object(ctx context.Context, objectID int64) (model.Object, error) {
	var o model.Object
	v, err := b.s.View(objectBucket, []byte(strconv.FormatInt(objectID, 10)))
	if err != nil {
		return o, err
	}
	if v == nil {
		return o, objectNotFound(objectID)
	}
	if err := json.Unmarshal(v, &o); err != nil {
		b.logger.Errorf("unmarshal object %d fail: %s", objectID, err.Error())
		return o, err
	}
	return o, nil
}

func (b *Bolt) Settings(ctx context.Context, category string) ([]model.Setting, error) {
	rows, err := b.s.Views(settingBucket, []byte(category+"/"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	settings := make([]model.Setting, 0, len(keys))
	for _, k := range keys {
		var s model.Setting
		if err := json.Unmarshal(rows[k], &s); err != nil {
			b.logger.Errorf("skip broken setting %s: %s", k, err.Error())
			continue
		}
		settings = append(settings, s)
	}
	return settings, nil
}

func (b *Bolt) PutObject(ctx context.Context, o model.Object) error {
	if o.ObjectID == 0 {
		return fmt.Errorf("objectid is required: %w", common.ErrInvalidParam)
	}
	v, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return b.s.Update(objectBucket, []byte(o.Key()), v)
}

func (b *Bolt) PutSetting(ctx context.Context, s model.Setting) error {
	if s.Category == "" || s.KeyName == "" {
		return fmt.Errorf("category and key_name are required: %w", common.ErrInvalidParam)
	}
	if !json.Valid(s.Value) {
		return fmt.Errorf("setting value is not json: %w", common.ErrInvalidParam)
	}
	v, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return b.s.Update(settingBucket, []byte(s.Key()), v)
}

// Backup returns a copy of the underlying bolt file.
func (b *Bolt) Backup() ([]byte, error) {
	return b.s.Backup()
}

func (b *Bolt) Close() error {
	return b.s.Close()
}
