package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OccupancyService is the occupancy engine. Every mutation runs in one store transaction
// with the affected unit rows locked; notifications and cache invalidation happen after commit.
type OccupancyService interface {
	CheckIn(ctx context.Context, caller domain.Caller, req CheckInRequest) (*CheckInResponse, error)
	CheckOut(ctx context.Context, caller domain.Caller, ref domain.ResidentRef) error
	BulkCheckIn(ctx context.Context, caller domain.Caller, req BulkCheckInRequest) (*BulkCheckInResponse, error)
	Transfer(ctx context.Context, caller domain.Caller, req TransferRequest) (*TransferResponse, error)

	// BulkEvict and ImportResidents process rows independently, one transaction per row.
	BulkEvict(ctx context.Context, caller domain.Caller, req BulkEvictRequest) (*BulkResult, error)
	ImportResidents(ctx context.Context, caller domain.Caller, req ImportResidentsRequest) (*BulkResult, error)
}

type occupancyService struct {
	store   repository.Store
	notify  NotificationService
	cache   *DashboardCache
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewOccupancyService(store repository.Store, notify NotificationService, cache *DashboardCache, metrics *Metrics, logger *zap.Logger) OccupancyService {
	return &occupancyService{
		store:   store,
		notify:  notify,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ============================================
// 请求/响应结构
// ============================================

type CheckInRequest struct {
	Population     domain.Population `json:"type" validate:"required,oneof=egyptian russian"`
	Name           string            `json:"name" validate:"required"`
	NationalID     string            `json:"nationalId" validate:"required_if=Population egyptian"`
	PassportNumber string            `json:"passportNumber" validate:"required_if=Population russian"`
	Nationality    string            `json:"nationality"`
	Gender         domain.Gender     `json:"gender" validate:"omitempty,oneof=male female"`
	Phone          string            `json:"phone"`
	Shift          string            `json:"shift"`
	UnitID         string            `json:"unitId" validate:"required"`
	CheckInDate    *time.Time        `json:"checkInDate"`
	OCRConfidence  *int              `json:"ocrConfidence" validate:"omitempty,min=0,max=100"`
	ImageURL       string            `json:"imageUrl"`
}

type CheckInResponse struct {
	ResidentID string `json:"residentId"`
}

type BulkCheckInEntry struct {
	Name           string        `json:"name" validate:"required"`
	NationalID     string        `json:"nationalId"`
	PassportNumber string        `json:"passportNumber"`
	Nationality    string        `json:"nationality"`
	Gender         domain.Gender `json:"gender" validate:"omitempty,oneof=male female"`
	Phone          string        `json:"phone"`
	Shift          string        `json:"shift"`
}

type BulkCheckInRequest struct {
	Population  domain.Population  `json:"type" validate:"required,oneof=egyptian russian"`
	UnitID      string             `json:"unitId" validate:"required"`
	CheckInDate *time.Time         `json:"checkInDate"`
	Entries     []BulkCheckInEntry `json:"residents" validate:"required,min=1,dive"`
}

type BulkCheckInResponse struct {
	Count       int      `json:"count"`
	ResidentIDs []string `json:"residentIds"`
}

type TransferRequest struct {
	Residents  []domain.ResidentRef `json:"residents"`
	FromUnitID string               `json:"fromUnitId" validate:"required"`
	ToUnitID   string               `json:"toUnitId" validate:"required"`
}

type TransferResponse struct {
	Transferred int `json:"transferred"`
}

type EvictionRow struct {
	Name         string     `json:"name"`
	NationalID   string     `json:"nationalId"` // national id or passport number
	UnitCode     string     `json:"unitCode"`
	CheckOutDate *time.Time `json:"checkOutDate"`
	Reason       string     `json:"reason"`

	// Invalid is set by file parsers when a cell could not be read; the row fails with it.
	Invalid error `json:"-"`
}

type BulkEvictRequest struct {
	FileName string        `json:"fileName"`
	Rows     []EvictionRow `json:"rows"`
}

type ResidentImportRow struct {
	Name         string        `json:"name"`
	NationalID   string        `json:"nationalId"` // passport number for chalet rows
	Phone        string        `json:"phone"`
	CheckInDate  *time.Time    `json:"checkInDate"`
	UnitCode     string        `json:"unitCode"`
	Shift        string        `json:"shift"`
	CheckOutDate *time.Time    `json:"checkOutDate"`
	Gender       domain.Gender `json:"gender"`
	Nationality  string        `json:"nationality"`

	Invalid error `json:"-"` // see EvictionRow.Invalid
}

type ImportResidentsRequest struct {
	FileName string              `json:"fileName"`
	Rows     []ResidentImportRow `json:"rows"`
}

// BulkResult summarizes a row-by-row operation and points to its import log.
type BulkResult struct {
	LogID        string              `json:"logId"`
	SuccessCount int                 `json:"successCount"`
	FailedCount  int                 `json:"failedCount"`
	Errors       domain.ImportErrors `json:"errors"`
}

const evictionLogPrefix = "[إخلاء] "

// ============================================
// CheckIn / CheckOut
// ============================================

func (s *occupancyService) CheckIn(ctx context.Context, caller domain.Caller, req CheckInRequest) (resp *CheckInResponse, err error) {
	defer func() { s.metrics.observeOperation("check_in", err) }()

	// 1. 参数验证
	req.Name = trimmed(req.Name)
	req.NationalID = trimmed(req.NationalID)
	req.PassportNumber = trimmed(req.PassportNumber)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	at := s.dateOrNow(req.CheckInDate)
	var unit *domain.Unit
	var residentID string

	// 2. 事务内: 锁定单元 -> 容量 -> 人口类型 -> 写入
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := s.lockVisibleUnit(ctx, tx, caller, req.UnitID)
		if err != nil {
			return err
		}
		if u.IsFull() {
			return domain.CapacityExceeded(u.AvailableBeds(), 1)
		}
		if !u.Type.Accepts(req.Population) {
			return domain.PopulationMismatch(req.Population.UnitType())
		}

		res := newResident(req.Population, req.Name, req.NationalID, req.PassportNumber, req.Nationality, req.Gender, req.Phone, req.Shift, at)
		res.UnitID = domain.NewNullString(u.ID)
		res.LastUnitID = res.UnitID
		if req.OCRConfidence != nil {
			res.OCRConfidence.Int64, res.OCRConfidence.Valid = int64(*req.OCRConfidence), true
		}
		res.ImageURL = domain.NewNullString(req.ImageURL)

		id, err := tx.Residents().CreateResident(ctx, res)
		if err != nil {
			return fmt.Errorf("create resident: %w", err)
		}
		res.ID = id
		if err := s.adjustOccupancy(ctx, tx, u, 1); err != nil {
			return err
		}
		if err := appendRecord(ctx, tx, res, u, domain.ActionCheckIn, nil, at, ""); err != nil {
			return err
		}
		unit, residentID = u, id
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3. 提交后: 缓存失效 + 通知
	s.cache.Invalidate(ctx)
	s.notify.Emit(ctx, domain.Notification{
		Title:   "تسكين جديد",
		Message: fmt.Sprintf("تم تسكين %s في %s", req.Name, unit.Code),
		Type:    domain.NotificationSuccess,
		Scope:   unit.Scope,
	})
	s.logger.Info("resident checked in",
		zap.String("population", string(req.Population)),
		zap.String("resident_id", residentID),
		zap.String("unit_code", unit.Code),
	)
	return &CheckInResponse{ResidentID: residentID}, nil
}

func (s *occupancyService) CheckOut(ctx context.Context, caller domain.Caller, ref domain.ResidentRef) (err error) {
	defer func() { s.metrics.observeOperation("check_out", err) }()

	if !ref.Population.Valid() {
		return domain.MissingField("type")
	}
	if trimmed(ref.ID) == "" {
		return domain.MissingField("residentId")
	}

	at := s.now()
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		r, err := tx.Residents().LockResident(ctx, ref.Population, ref.ID)
		if err != nil {
			return translate(err, "resident")
		}
		if !r.IsPlaced() {
			return domain.NotAssigned()
		}
		u, err := tx.Units().LockUnit(ctx, r.UnitID.String)
		if err != nil {
			return translate(err, "unit")
		}
		if !caller.Scope.Allows(u.Scope) {
			return domain.NotFound("resident")
		}
		return s.checkOutLocked(ctx, tx, r, u, at, "")
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("resident checked out",
		zap.String("population", string(ref.Population)),
		zap.String("resident_id", ref.ID),
	)
	return nil
}

// ============================================
// BulkCheckIn / Transfer
// ============================================

func (s *occupancyService) BulkCheckIn(ctx context.Context, caller domain.Caller, req BulkCheckInRequest) (resp *BulkCheckInResponse, err error) {
	defer func() { s.metrics.observeOperation("bulk_check_in", err) }()

	// 1. 参数验证（每一条记录）
	for i := range req.Entries {
		e := &req.Entries[i]
		e.Name = trimmed(e.Name)
		e.NationalID = trimmed(e.NationalID)
		e.PassportNumber = trimmed(e.PassportNumber)
	}
	if len(req.Entries) == 0 {
		return nil, domain.MissingField("residents")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	for i, e := range req.Entries {
		if req.Population == domain.PopulationEgyptian && e.NationalID == "" {
			return nil, domain.MissingField(fmt.Sprintf("residents[%d].nationalId", i))
		}
		if req.Population == domain.PopulationRussian && e.PassportNumber == "" {
			return nil, domain.MissingField(fmt.Sprintf("residents[%d].passportNumber", i))
		}
	}

	at := s.dateOrNow(req.CheckInDate)
	var unit *domain.Unit
	ids := make([]string, 0, len(req.Entries))

	// 2. 全部成功或全部回滚
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := s.lockVisibleUnit(ctx, tx, caller, req.UnitID)
		if err != nil {
			return err
		}
		if !u.Type.Accepts(req.Population) {
			return domain.PopulationMismatch(req.Population.UnitType())
		}
		if len(req.Entries) > u.AvailableBeds() {
			return domain.CapacityExceeded(u.AvailableBeds(), len(req.Entries))
		}

		for _, e := range req.Entries {
			res := newResident(req.Population, e.Name, e.NationalID, e.PassportNumber, e.Nationality, e.Gender, e.Phone, e.Shift, at)
			res.UnitID = domain.NewNullString(u.ID)
			res.LastUnitID = res.UnitID
			id, err := tx.Residents().CreateResident(ctx, res)
			if err != nil {
				return fmt.Errorf("create resident %q: %w", e.Name, err)
			}
			res.ID = id
			if err := appendRecord(ctx, tx, res, u, domain.ActionCheckIn, nil, at, ""); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := s.adjustOccupancy(ctx, tx, u, len(req.Entries)); err != nil {
			return err
		}
		unit = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.notify.Emit(ctx, domain.Notification{
		Title:   "تسكين جماعي",
		Message: fmt.Sprintf("تم تسكين %d أشخاص في %s", len(ids), unit.Code),
		Type:    domain.NotificationSuccess,
		Scope:   unit.Scope,
	})
	return &BulkCheckInResponse{Count: len(ids), ResidentIDs: ids}, nil
}

func (s *occupancyService) Transfer(ctx context.Context, caller domain.Caller, req TransferRequest) (resp *TransferResponse, err error) {
	defer func() { s.metrics.observeOperation("transfer", err) }()

	// 1. 参数验证
	if len(req.Residents) == 0 {
		return nil, domain.MissingField("residents")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.FromUnitID == req.ToUnitID {
		return nil, domain.Conflict("origin and destination are the same unit")
	}

	n := len(req.Residents)
	at := s.now()
	var from, to *domain.Unit

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		// 2. 按 id 顺序锁定两个单元
		locked, err := s.lockUnitsOrdered(ctx, tx, caller, req.FromUnitID, req.ToUnitID)
		if err != nil {
			return err
		}
		from, to = locked[req.FromUnitID], locked[req.ToUnitID]

		if n > to.AvailableBeds() {
			return domain.CapacityExceeded(to.AvailableBeds(), n)
		}

		// 3. 每个住户: 必须在原单元中且人口类型匹配目标单元
		seen := make(map[domain.ResidentRef]bool, n)
		residents := make([]*domain.Resident, 0, n)
		for _, ref := range req.Residents {
			if seen[ref] {
				return domain.Conflict(fmt.Sprintf("resident %s listed more than once", ref.ID))
			}
			seen[ref] = true
			if !ref.Population.Valid() {
				return domain.MissingField("residents.type")
			}
			r, err := tx.Residents().LockResident(ctx, ref.Population, ref.ID)
			if err != nil {
				return translate(err, "resident")
			}
			if !r.IsPlaced() || r.UnitID.String != from.ID {
				return domain.Conflict(fmt.Sprintf("resident %s is not active in unit %s", r.ID, from.Code))
			}
			if !to.Type.Accepts(r.Population) {
				return domain.PopulationMismatch(r.Population.UnitType())
			}
			residents = append(residents, r)
		}

		// 4. 写入: 住户 -> 记录 -> 计数
		for _, r := range residents {
			if err := tx.Residents().PlaceResident(ctx, r.Population, r.ID, to.ID); err != nil {
				return translate(err, "resident")
			}
			if err := appendRecord(ctx, tx, r, to, domain.ActionTransferIn, from, at, ""); err != nil {
				return err
			}
			if err := appendRecord(ctx, tx, r, from, domain.ActionTransferOut, to, at, ""); err != nil {
				return err
			}
		}
		if err := s.adjustOccupancy(ctx, tx, from, -n); err != nil {
			return err
		}
		return s.adjustOccupancy(ctx, tx, to, n)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.notify.Emit(ctx, domain.Notification{
		Title:   "نقل ساكنين",
		Message: fmt.Sprintf("تم نقل %d ساكن من %s إلى %s", n, from.Code, to.Code),
		Type:    domain.NotificationInfo,
		Scope:   to.Scope,
	})
	s.logger.Info("residents transferred",
		zap.Int("count", n),
		zap.String("from_unit", from.Code),
		zap.String("to_unit", to.Code),
	)
	return &TransferResponse{Transferred: n}, nil
}

// ============================================
// BulkEvict / ImportResidents
// ============================================

func (s *occupancyService) BulkEvict(ctx context.Context, caller domain.Caller, req BulkEvictRequest) (*BulkResult, error) {
	fileName := evictionLogPrefix + req.FileName
	result, err := s.runRows(ctx, caller, "bulk_evict", fileName, len(req.Rows), func(tx repository.Store, i int) error {
		return s.evictRow(ctx, tx, caller, req.Rows[i])
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("تم إخلاء %d ساكن بنجاح", result.SuccessCount)
	typ := domain.NotificationSuccess
	if result.FailedCount > 0 {
		msg += fmt.Sprintf(" (فشل %d)", result.FailedCount)
		typ = domain.NotificationWarning
	}
	s.notify.Emit(ctx, domain.Notification{
		Title:   "إخلاء جماعي",
		Message: msg,
		Type:    typ,
		Scope:   caller.Scope,
	})
	return result, nil
}

func (s *occupancyService) ImportResidents(ctx context.Context, caller domain.Caller, req ImportResidentsRequest) (*BulkResult, error) {
	return s.runRows(ctx, caller, "import_residents", req.FileName, len(req.Rows), func(tx repository.Store, i int) error {
		return s.importRow(ctx, tx, caller, req.Rows[i])
	})
}

// runRows creates the import log, runs each row in its own transaction and records the outcome.
// Rows left unprocessed when ctx is cancelled are reported as failed.
func (s *occupancyService) runRows(ctx context.Context, caller domain.Caller, op, fileName string, total int, row func(tx repository.Store, i int) error) (*BulkResult, error) {
	log := &domain.ImportLog{
		FileName:  fileName,
		TotalRows: total,
		Status:    domain.ImportStatusProcessing,
	}
	if _, err := uuid.Parse(caller.UserID); err == nil {
		log.ImportedBy = domain.NewNullString(caller.UserID)
	}
	logID, err := s.store.ImportLogs().CreateImportLog(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("create import log: %w", err)
	}
	log.ID = logID

	success := 0
	errs := domain.ImportErrors{}
	for i := 0; i < total; i++ {
		var rowErr error
		if ctxErr := ctx.Err(); ctxErr != nil {
			rowErr = ctxErr
		} else {
			rowErr = s.store.InTx(ctx, func(tx repository.Store) error { return row(tx, i) })
		}
		s.metrics.observeRow(op, rowErr)
		if rowErr != nil {
			errs = append(errs, domain.ImportRowError{Row: i + 1, Error: rowErr.Error(), Kind: domain.KindOf(rowErr), Cause: rowErr})
			continue
		}
		success++
	}

	// 取消后仍需落库结果
	finishCtx := context.WithoutCancel(ctx)
	log.Finish(success, errs)
	if err := s.store.ImportLogs().UpdateImportLog(finishCtx, log); err != nil {
		s.logger.Error("failed to update import log", zap.String("log_id", logID), zap.Error(err))
		return nil, fmt.Errorf("update import log: %w", err)
	}
	if success > 0 {
		s.cache.Invalidate(finishCtx)
	}

	s.logger.Info("bulk rows processed",
		zap.String("operation", op),
		zap.String("log_id", logID),
		zap.Int("success", success),
		zap.Int("failed", len(errs)),
	)
	return &BulkResult{LogID: logID, SuccessCount: success, FailedCount: len(errs), Errors: errs}, nil
}

func (s *occupancyService) evictRow(ctx context.Context, tx repository.Store, caller domain.Caller, row EvictionRow) error {
	if row.Invalid != nil {
		return row.Invalid
	}
	name := trimmed(row.Name)
	if name == "" {
		return domain.MissingField("name")
	}
	doc := trimmed(row.NationalID)
	code := trimmed(row.UnitCode)

	// 1. 按证件号: 先埃及住户, 再俄罗斯住户
	var found *domain.Resident
	if doc != "" {
		for _, pop := range []domain.Population{domain.PopulationEgyptian, domain.PopulationRussian} {
			r, err := tx.Residents().FindActiveByDocument(ctx, pop, doc)
			if err == nil && r.IsPlaced() {
				found = r
				break
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
	}
	// 2. 按单元编码 + 姓名
	if found == nil && code != "" {
		u, err := tx.Units().GetUnitByCode(ctx, code)
		if err != nil {
			return translate(err, "unit")
		}
		r, err := tx.Residents().FindActiveByNameInUnit(ctx, u.Type.Population(), name, u.ID)
		if err != nil {
			return translate(err, "resident")
		}
		found = r
	}
	if found == nil {
		return domain.NotFound("resident")
	}

	r, err := tx.Residents().LockResident(ctx, found.Population, found.ID)
	if err != nil {
		return translate(err, "resident")
	}
	if !r.IsPlaced() {
		return domain.NotAssigned()
	}
	u, err := tx.Units().LockUnit(ctx, r.UnitID.String)
	if err != nil {
		return translate(err, "unit")
	}
	if !caller.Scope.Allows(u.Scope) {
		return domain.NotFound("resident")
	}
	return s.checkOutLocked(ctx, tx, r, u, s.dateOrNow(row.CheckOutDate), trimmed(row.Reason))
}

func (s *occupancyService) importRow(ctx context.Context, tx repository.Store, caller domain.Caller, row ResidentImportRow) error {
	if row.Invalid != nil {
		return row.Invalid
	}
	name := trimmed(row.Name)
	if name == "" {
		return domain.MissingField("name")
	}
	code := trimmed(row.UnitCode)
	if code == "" {
		return domain.MissingField("unitCode")
	}

	byCode, err := tx.Units().GetUnitByCode(ctx, code)
	if err != nil {
		return translate(err, "unit")
	}
	u, err := tx.Units().LockUnit(ctx, byCode.ID)
	if err != nil {
		return translate(err, "unit")
	}
	if !caller.Scope.Allows(u.Scope) {
		return domain.NotFound("unit")
	}
	if u.IsFull() {
		return domain.CapacityExceeded(u.AvailableBeds(), 1)
	}

	pop := u.Type.Population()
	doc := trimmed(row.NationalID)
	res := newResident(pop, name, doc, doc, row.Nationality, row.Gender, row.Phone, row.Shift, s.dateOrNow(row.CheckInDate))

	// 历史记录: 已退房，不占床位，不写入事件
	if row.CheckOutDate != nil {
		res.Status = domain.ResidentStatusCheckedOut
		res.CheckOutDate.Time, res.CheckOutDate.Valid = *row.CheckOutDate, true
		res.LastUnitID = domain.NewNullString(u.ID)
		if _, err := tx.Residents().CreateResident(ctx, res); err != nil {
			return fmt.Errorf("create resident: %w", err)
		}
		return nil
	}

	res.UnitID = domain.NewNullString(u.ID)
	res.LastUnitID = res.UnitID
	id, err := tx.Residents().CreateResident(ctx, res)
	if err != nil {
		return fmt.Errorf("create resident: %w", err)
	}
	res.ID = id
	if err := s.adjustOccupancy(ctx, tx, u, 1); err != nil {
		return err
	}
	return appendRecord(ctx, tx, res, u, domain.ActionCheckIn, nil, res.CheckInDate, "")
}

// ============================================
// helpers
// ============================================

func (s *occupancyService) dateOrNow(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return s.now()
	}
	return *t
}

// lockVisibleUnit locks a unit and hides it from callers outside its sector.
func (s *occupancyService) lockVisibleUnit(ctx context.Context, tx repository.Store, caller domain.Caller, id string) (*domain.Unit, error) {
	u, err := tx.Units().LockUnit(ctx, id)
	if err != nil {
		return nil, translate(err, "unit")
	}
	if !caller.Scope.Allows(u.Scope) {
		return nil, domain.NotFound("unit")
	}
	return u, nil
}

func (s *occupancyService) lockUnitsOrdered(ctx context.Context, tx repository.Store, caller domain.Caller, ids ...string) (map[string]*domain.Unit, error) {
	ordered := append([]string(nil), ids...)
	sort.Strings(ordered)
	out := make(map[string]*domain.Unit, len(ordered))
	for _, id := range ordered {
		u, err := s.lockVisibleUnit(ctx, tx, caller, id)
		if err != nil {
			return nil, err
		}
		out[id] = u
	}
	return out, nil
}

// adjustOccupancy applies delta to a locked unit, floors at zero and re-derives its status.
func (s *occupancyService) adjustOccupancy(ctx context.Context, tx repository.Store, u *domain.Unit, delta int) error {
	n, status := u.WithOccupants(delta)
	if n > u.Beds {
		return domain.CapacityExceeded(u.AvailableBeds(), delta)
	}
	if err := tx.Units().SetOccupancy(ctx, u.ID, n, status); err != nil {
		return fmt.Errorf("update unit occupancy: %w", err)
	}
	u.CurrentOccupants, u.Status = n, status
	return nil
}

func (s *occupancyService) checkOutLocked(ctx context.Context, tx repository.Store, r *domain.Resident, u *domain.Unit, at time.Time, notes string) error {
	if err := tx.Residents().CheckOutResident(ctx, r.Population, r.ID, at); err != nil {
		return translate(err, "resident")
	}
	if err := s.adjustOccupancy(ctx, tx, u, -1); err != nil {
		return err
	}
	return appendRecord(ctx, tx, r, u, domain.ActionCheckOut, nil, at, notes)
}

func appendRecord(ctx context.Context, tx repository.Store, r *domain.Resident, u *domain.Unit, action domain.OccupancyAction, counterpart *domain.Unit, at time.Time, notes string) error {
	rec := &domain.OccupancyRecord{
		ResidentType: r.Population,
		ResidentID:   r.ID,
		ResidentName: r.Name,
		UnitID:       u.ID,
		UnitCode:     u.Code,
		Action:       action,
		Notes:        domain.NewNullString(notes),
		ActionDate:   at,
	}
	if counterpart != nil {
		rec.FromUnitID = domain.NewNullString(counterpart.ID)
		rec.FromUnitCode = domain.NewNullString(counterpart.Code)
	}
	if _, err := tx.OccupancyRecords().AppendRecord(ctx, rec); err != nil {
		return fmt.Errorf("append %s record: %w", action, err)
	}
	return nil
}

// newResident builds an unplaced active resident; Russian residents default to male and Russian nationality.
func newResident(pop domain.Population, name, nationalID, passport, nationality string, gender domain.Gender, phone, shift string, checkIn time.Time) *domain.Resident {
	r := &domain.Resident{
		Population:  pop,
		Name:        name,
		Phone:       domain.NewNullString(trimmed(phone)),
		Shift:       domain.NewNullString(trimmed(shift)),
		CheckInDate: checkIn,
		Status:      domain.ResidentStatusActive,
	}
	if pop == domain.PopulationRussian {
		r.PassportNumber = passport
		r.Nationality = trimmed(nationality)
		if r.Nationality == "" {
			r.Nationality = domain.DefaultNationality
		}
		r.Gender = gender
		if !r.Gender.Valid() {
			r.Gender = domain.GenderMale
		}
		return r
	}
	r.NationalID = nationalID
	return r
}
