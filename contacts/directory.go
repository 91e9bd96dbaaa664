// Package contacts resolves inbound channel identities to a single contact
// record and keeps phone and email unique across contacts.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leaddesk/db"
	"leaddesk/models"
	"leaddesk/tools"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	// ErrContactConflict is returned by Update when the new phone or email
	// already belongs to another contact.
	ErrContactConflict = errors.New("phone or email already belongs to another contact")
)

// Hints are the identity attributes a channel adapter could extract from
// the inbound payload. Every field is optional.
type Hints struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
}

func (h Hints) normalized() Hints {
	return Hints{
		Name:    strings.TrimSpace(h.Name),
		Phone:   tools.NormalizePhone(h.Phone),
		Email:   tools.NormalizeEmail(h.Email),
		Company: strings.TrimSpace(h.Company),
	}
}

// Directory is the contact store.
type Directory struct {
	db  *gorm.DB
	log *zap.Logger

	// beforeCreate runs between a missed lookup and the insert (tests).
	beforeCreate func()
}

func NewDirectory(conn *gorm.DB, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{db: conn, log: log.With(zap.String("service", "contacts"))}
}

// ResolveOrCreate returns the contact identified by (channel, externalID) or,
// failing that, by the phone or email hint. A found contact only gets its
// empty fields filled in. When nothing matches a new contact is created
// together with its channel identifier; losing a creation race against a
// concurrent writer resolves to the winner's row.
func (d *Directory) ResolveOrCreate(ctx context.Context, ch models.Channel, externalID string, hints Hints) (*models.Contact, error) {
	if !ch.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidChannel, int(ch))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	externalID = strings.TrimSpace(externalID)
	h := hints.normalized()

	found, err := d.lookup(ch, externalID, h)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return d.merge(found, ch, externalID, h)
	}

	if d.beforeCreate != nil {
		d.beforeCreate()
	}
	created, err := d.create(ch, externalID, h)
	if err == nil {
		d.log.Debug("contact created",
			zap.Int64("contact_id", created.ID),
			zap.Stringer("channel", ch),
		)
		return created, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	// concurrent writer won; merge into its row
	d.log.Debug("contact create raced, re-fetching", zap.Stringer("channel", ch), zap.Error(err))
	found, err = d.lookup(ch, externalID, h)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("create contact: unique violation but no matching row")
	}
	return d.merge(found, ch, externalID, h)
}

func (d *Directory) lookup(ch models.Channel, externalID string, h Hints) (*models.Contact, error) {
	if externalID != "" {
		var link models.ContactChannel
		err := d.db.Where("channel = ? AND external_id = ?", ch, externalID).First(&link).Error
		switch {
		case err == nil:
			return d.load(link.ContactID)
		case !db.IsNotFound(err):
			return nil, fmt.Errorf("lookup channel id: %w", err)
		}
	}
	if h.Phone != "" {
		if c, err := d.findBy("phone", h.Phone); err != nil || c != nil {
			return c, err
		}
	}
	if h.Email != "" {
		if c, err := d.findBy("email", h.Email); err != nil || c != nil {
			return c, err
		}
	}
	return nil, nil
}

func (d *Directory) findBy(column, value string) (*models.Contact, error) {
	var c models.Contact
	err := d.db.Preload("Channels").Where(column+" = ?", value).First(&c).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup by %s: %w", column, err)
	}
	return &c, nil
}

func (d *Directory) load(id int64) (*models.Contact, error) {
	var c models.Contact
	if err := d.db.Preload("Channels").First(&c, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (d *Directory) create(ch models.Channel, externalID string, h Hints) (*models.Contact, error) {
	c := models.Contact{
		Name:          h.Name,
		Phone:         models.StrPtr(h.Phone),
		Email:         models.StrPtr(h.Email),
		Company:       h.Company,
		InterestLevel: models.InterestNew,
	}
	if c.Name == "" {
		c.Name = models.UnknownContactName
	}

	tx := d.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&c).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if externalID != "" {
		link := models.ContactChannel{ContactID: c.ID, Channel: ch, ExternalID: externalID}
		if err := tx.Create(&link).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		c.Channels = []models.ContactChannel{link}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// merge fills the contact's empty fields from h and attaches the channel
// identifier when the contact has none for ch. Populated fields are never
// overwritten.
func (d *Directory) merge(c *models.Contact, ch models.Channel, externalID string, h Hints) (*models.Contact, error) {
	updates := map[string]any{}
	if h.Name != "" && c.HasPlaceholderName() {
		updates["name"] = h.Name
	}
	if h.Phone != "" && models.StrVal(c.Phone) == "" {
		updates["phone"] = h.Phone
	}
	if h.Email != "" && models.StrVal(c.Email) == "" {
		updates["email"] = h.Email
	}
	if h.Company != "" && strings.TrimSpace(c.Company) == "" {
		updates["company"] = h.Company
	}

	changed := false
	if len(updates) > 0 {
		err := d.updateColumns(c.ID, updates)
		if db.IsUniqueViolation(err) {
			// phone or email already owned by another contact: apply the
			// plain fields, then each unique key on its own
			d.log.Debug("merge collided on unique key, retrying field by field",
				zap.Int64("contact_id", c.ID), zap.Error(err))
			unique := map[string]any{}
			for _, k := range []string{"phone", "email"} {
				if v, ok := updates[k]; ok {
					unique[k] = v
					delete(updates, k)
				}
			}
			err = nil
			if len(updates) > 0 {
				err = d.updateColumns(c.ID, updates)
			}
			for k, v := range unique {
				if err != nil {
					break
				}
				if uerr := d.updateColumns(c.ID, map[string]any{k: v}); uerr != nil && !db.IsUniqueViolation(uerr) {
					err = uerr
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("merge contact %d: %w", c.ID, err)
		}
		changed = true
	}

	if externalID != "" {
		if _, ok := c.ExternalID(ch); !ok {
			link := models.ContactChannel{ContactID: c.ID, Channel: ch, ExternalID: externalID}
			if err := d.db.Create(&link).Error; err != nil {
				if !db.IsUniqueViolation(err) {
					return nil, fmt.Errorf("attach channel id: %w", err)
				}
				d.log.Debug("channel id already attached",
					zap.Int64("contact_id", c.ID), zap.Stringer("channel", ch))
			}
			changed = true
		}
	}

	if !changed {
		return c, nil
	}
	return d.load(c.ID)
}

func (d *Directory) updateColumns(id int64, updates map[string]any) error {
	return d.db.Model(&models.Contact{}).Where("id = ?", id).Updates(updates).Error
}

/************************************************
/**** MARK: ADMIN ****/
/************************************************/

// Get returns a contact with its channel identifiers.
func (d *Directory) Get(ctx context.Context, id int64) (*models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.load(id)
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	Interest *models.InterestLevel
	Channel  *models.Channel
	Query    string
	Limit    int
	Offset   int
}

// List returns contacts, most recently updated first.
func (d *Directory) List(ctx context.Context, f Filter) ([]models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := d.db.Model(&models.Contact{})
	if f.Interest != nil {
		q = q.Where("contacts.interest_level = ?", *f.Interest)
	}
	if f.Channel != nil {
		q = q.Where("contacts.id IN ?",
			d.db.Table("contact_channels").Select("contact_id").Where("channel = ?", *f.Channel).SubQuery())
	}
	if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(contacts.name) LIKE ? OR LOWER(contacts.email) LIKE ? OR contacts.phone LIKE ? OR LOWER(contacts.company) LIKE ?",
			like, like, like, like)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var out []models.Contact
	err := q.Preload("Channels").
		Order("contacts.updated_at desc, contacts.id desc").
		Limit(limit).Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRequest is the allow-list of fields an operator may change. Nil
// fields are left untouched; an empty phone or email clears it.
type UpdateRequest struct {
	Name          *string               `json:"name"`
	Phone         *string               `json:"phone"`
	Email         *string               `json:"email"`
	Company       *string               `json:"company"`
	InterestLevel *models.InterestLevel `json:"interest_level"`
}

func (d *Directory) Update(ctx context.Context, id int64, req UpdateRequest) (*models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := d.load(id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			name = models.UnknownContactName
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = models.StrPtr(tools.NormalizePhone(*req.Phone))
	}
	if req.Email != nil {
		updates["email"] = models.StrPtr(tools.NormalizeEmail(*req.Email))
	}
	if req.Company != nil {
		updates["company"] = strings.TrimSpace(*req.Company)
	}
	if req.InterestLevel != nil {
		if !req.InterestLevel.Valid() {
			return nil, models.ErrInvalidInterestLevel
		}
		updates["interest_level"] = *req.InterestLevel
	}

	if len(updates) > 0 {
		if err := d.updateColumns(id, updates); err != nil {
			if db.IsUniqueViolation(err) {
				return nil, ErrContactConflict
			}
			return nil, err
		}
	}
	return d.load(id)
}

// SetInterest stores a new interest level.
func (d *Directory) SetInterest(ctx context.Context, id int64, level models.InterestLevel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !level.Valid() {
		return models.ErrInvalidInterestLevel
	}
	res := d.db.Model(&models.Contact{}).Where("id = ?", id).Update("interest_level", level)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// AppendNote appends a timestamped line to the contact's notes in a single
// statement, so concurrent writers never lose each other's lines.
func (d *Directory) AppendNote(ctx context.Context, id int64, note string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	now := time.Now()
	line := fmt.Sprintf("[%s] %s", now.UTC().Format("2006-01-02 15:04"), note)

	res := d.db.Exec(
		"UPDATE contacts SET notes = CASE WHEN notes IS NULL OR notes = '' THEN ? ELSE notes || ? END, updated_at = ? WHERE id = ?",
		line, "\n"+line, now, id,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// Channels lists the identifiers a contact has on each channel.
func (d *Directory) Channels(ctx context.Context, id int64) ([]models.ContactChannel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []models.ContactChannel
	if err := d.db.Where("contact_id = ?", id).Order("id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
