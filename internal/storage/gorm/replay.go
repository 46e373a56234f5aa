package gormstorage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/OCAP2/gunplay/internal/model"
	"github.com/OCAP2/gunplay/internal/model/convert"
	"github.com/OCAP2/gunplay/internal/storage"
	"github.com/OCAP2/gunplay/pkg/core"
)

// Replay reads a stored session back and feeds it, in insertion order, into
// another backend. Ending the session on dst triggers its export.
func Replay(db *gorm.DB, sessionID uint, dst storage.Backend) error {
	var s model.Session
	if err := db.First(&s, sessionID).Error; err != nil {
		return fmt.Errorf("failed to load session %d: %w", sessionID, err)
	}
	summary, err := convert.SummaryFromJSON(s)
	if err != nil {
		return fmt.Errorf("failed to decode summary of session %d: %w", sessionID, err)
	}

	cs := convert.SessionToCore(s)
	if err := dst.StartSession(&cs); err != nil {
		return err
	}

	err = replayRows(db, sessionID, convert.ActorToCore, dst.AddActor)
	if err == nil {
		err = replayRows(db, sessionID, convert.ShotEventToCore, dst.RecordShotEvent)
	}
	if err == nil {
		err = replayRows(db, sessionID, convert.HitEventToCore, dst.RecordHitEvent)
	}
	if err == nil {
		err = replayRows(db, sessionID, convert.ProjectileEventToCore, dst.RecordProjectileEvent)
	}
	if err == nil {
		err = replayRows(db, sessionID, convert.ReloadEventToCore, dst.RecordReloadEvent)
	}
	if err == nil {
		err = replayRows(db, sessionID, convert.SwitchEventToCore, dst.RecordSwitchEvent)
	}
	if err == nil {
		err = replayRows(db, sessionID, convert.GrenadeEventToCore, dst.RecordGrenadeEvent)
	}
	if err == nil {
		err = replayRows(db, sessionID, convert.ExplosionEventToCore, dst.RecordExplosionEvent)
	}
	if err == nil {
		err = replayRows(db, sessionID, convert.PickupEventToCore, dst.RecordPickupEvent)
	}
	if err == nil {
		err = replayRows(db, sessionID, convert.KillEventToCore, dst.RecordKillEvent)
	}
	if err != nil {
		return err
	}
	return dst.EndSession(summary)
}

func replayRows[M any, C any](db *gorm.DB, sessionID uint, conv func(M) C, record func(*C) error) error {
	var rows []M
	if err := db.Where("session_id = ?", sessionID).Order("id").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to read %T rows: %w", rows, err)
	}
	for _, r := range rows {
		c := conv(r)
		if err := record(&c); err != nil {
			return err
		}
	}
	return nil
}

// Sessions lists stored sessions, newest first.
func Sessions(db *gorm.DB) ([]core.Session, error) {
	var rows []model.Session
	if err := db.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]core.Session, len(rows))
	for i, r := range rows {
		out[i] = convert.SessionToCore(r)
	}
	return out, nil
}
