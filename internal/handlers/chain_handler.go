package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apierrors "github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/errors"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/middleware"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/resolver"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/services"
)

// Path parameter names used by the chain routes.
const (
	EntryIDParam    = "entryId"
	RelationIDParam = "relationId"
)

const dateLayout = "2006-01-02"

// ChainHandler handles chain-of-title HTTP requests for a land record.
type ChainHandler struct {
	service services.ChainService
}

// NewChainHandler creates a new ChainHandler instance.
func NewChainHandler(service services.ChainService) *ChainHandler {
	return &ChainHandler{
		service: service,
	}
}

// UpdateStatusRequest is the body of PUT .../status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=valid invalid nullified"`
	Reason string `json:"reason" binding:"required_if=Status invalid,max=500"`
}

// EffectiveDateRequest is the body of PUT .../effective-date.
type EffectiveDateRequest struct {
	EffectiveDate string `json:"effective_date" binding:"required,datetime=2006-01-02"`
}

// AffectedEntryInput is one order annotation in an AffectedEntriesRequest.
type AffectedEntryInput struct {
	EntryID string `json:"entry_id" binding:"required,uuid"`
	Reason  string `json:"reason" binding:"max=500"`
}

// AffectedEntriesRequest replaces an order entry's affected entries.
// An empty list clears them.
type AffectedEntriesRequest struct {
	AffectedEntries []AffectedEntryInput `json:"affected_entries" binding:"dive"`
}

// EqualDistributionRequest is the body of PUT .../equal-distribution.
type EqualDistributionRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// AreaInput is an area as entered by the client. Only the fields of the
// chosen unit are read.
type AreaInput struct {
	Unit         string          `json:"unit" binding:"required,oneof=sq_m acre_guntha"`
	SquareMeters decimal.Decimal `json:"square_meters"`
	Acres        decimal.Decimal `json:"acres"`
	Gunthas      decimal.Decimal `json:"gunthas"`
}

// SurveyNumberInput is a survey number reference in a request body.
type SurveyNumberInput struct {
	Number string `json:"number" binding:"required,max=50"`
	Kind   string `json:"kind" binding:"required,oneof=primary block resurvey"`
}

// AddOwnerRequest is the body of POST .../owners.
type AddOwnerRequest struct {
	OwnerName            string             `json:"owner_name" binding:"required,max=200"`
	Area                 *AreaInput         `json:"area" binding:"required"`
	SurveyNumberOverride *SurveyNumberInput `json:"survey_number_override"`
}

// UpdateAreaRequest is the body of PUT .../owners/:relationId/area.
type UpdateAreaRequest struct {
	Area *AreaInput `json:"area" binding:"required"`
}

// PreviousOwnersQuery holds the query parameters of the previous-owners endpoint.
// Without a survey number every entry before the current one is walked.
type PreviousOwnersQuery struct {
	SurveyNumber string `form:"survey_number" binding:"max=50"`
	Kind         string `form:"kind" binding:"omitempty,oneof=primary block resurvey"`
}

// AreaData is an area in the response, with its square-meter equivalent.
type AreaData struct {
	Unit              string          `json:"unit"`
	SquareMeters      decimal.Decimal `json:"square_meters"`
	Acres             decimal.Decimal `json:"acres"`
	Gunthas           decimal.Decimal `json:"gunthas"`
	TotalSquareMeters decimal.Decimal `json:"total_square_meters"`
}

// SurveyNumberData is a survey number in the response.
type SurveyNumberData struct {
	Number string `json:"number"`
	Kind   string `json:"kind"`
}

// OwnerData is one owner relation of an entry.
type OwnerData struct {
	SurveyNumberOverride *SurveyNumberData `json:"survey_number_override,omitempty"`
	Area                 AreaData          `json:"area"`
	ID                   string            `json:"id"`
	OwnerName            string            `json:"owner_name"`
	IsValid              bool              `json:"is_valid"`
}

// AffectedEntryData is one order annotation.
type AffectedEntryData struct {
	EntryID string `json:"entry_id"`
	Reason  string `json:"reason,omitempty"`
}

// DetailData is the detail of a chain entry.
type DetailData struct {
	EffectiveDate     *string             `json:"effective_date"`
	ID                string              `json:"id"`
	Type              string              `json:"type"`
	Status            string              `json:"status"`
	InvalidReason     string              `json:"invalid_reason,omitempty"`
	OldOwnerName      string              `json:"old_owner_name,omitempty"`
	Authority         string              `json:"authority,omitempty"`
	Ganot             string              `json:"ganot,omitempty"`
	AffectedEntries   []AffectedEntryData `json:"affected_entries"`
	Owners            []OwnerData         `json:"owners"`
	EqualDistribution bool                `json:"equal_distribution"`
}

// ChainEntryData is one position of the resolved chain.
// Detail is null while the entry's detail has not been entered.
type ChainEntryData struct {
	Detail         *DetailData        `json:"detail"`
	ID             string             `json:"id"`
	DisplayNumber  string             `json:"display_number,omitempty"`
	SurveyNumbers  []SurveyNumberData `json:"survey_numbers"`
	SequenceNumber int                `json:"sequence_number"`
	Position       int                `json:"position"`
}

// WarningData is a reference to an entry that is not part of the record.
type WarningData struct {
	EntryID   string `json:"entry_id,omitempty"`
	MissingID string `json:"missing_id"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// ChainResponse represents the response for chain endpoints and every mutation.
type ChainResponse struct {
	RecordID string           `json:"record_id"`
	Entries  []ChainEntryData `json:"entries"`
	Warnings []WarningData    `json:"warnings"`
	Count    int              `json:"count"`
}

// PassbookRowData is one line of the passbook.
type PassbookRowData struct {
	SurveyNumber        SurveyNumberData `json:"survey_number"`
	OwnerName           string           `json:"owner_name"`
	AreaSquareMeters    decimal.Decimal  `json:"area_square_meters"`
	Year                int              `json:"year"`
	EntrySequenceNumber int              `json:"entry_sequence_number"`
}

// PassbookResponse represents the response for the passbook endpoint.
type PassbookResponse struct {
	RecordID string            `json:"record_id"`
	Rows     []PassbookRowData `json:"rows"`
	Count    int               `json:"count"`
}

// PreviousOwnerData is one owner in the previous-owner pool.
type PreviousOwnerData struct {
	Name          string   `json:"name"`
	RemainingArea AreaData `json:"remaining_area"`
}

// PreviousOwnersResponse represents the response for the previous-owners endpoint.
type PreviousOwnersResponse struct {
	Owners []PreviousOwnerData `json:"owners"`
	Count  int                 `json:"count"`
}

// DateBoundsResponse is the window an entry's effective date may take.
// A null side is unbounded.
type DateBoundsResponse struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}

// GetChain handles GET /api/v1/records/:recordId/chain.
func (h *ChainHandler) GetChain(c *gin.Context) {
	recordID, ok := parseUUIDParam(c, middleware.RecordIDParam)
	if !ok {
		return
	}

	res, err := h.service.GetChain(c.Request.Context(), recordID)
	if err != nil {
		handleServiceError(c, err, "Failed to resolve chain")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

// RecomputeChain handles POST /api/v1/records/:recordId/chain/recompute.
// It persists any stored validity that no longer matches the chain.
func (h *ChainHandler) RecomputeChain(c *gin.Context) {
	recordID, ok := parseUUIDParam(c, middleware.RecordIDParam)
	if !ok {
		return
	}

	res, err := h.service.RecomputeChain(c.Request.Context(), recordID)
	if err != nil {
		handleServiceError(c, err, "Failed to recompute chain")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

// GetPassbook handles GET /api/v1/records/:recordId/passbook.
func (h *ChainHandler) GetPassbook(c *gin.Context) {
	recordID, ok := parseUUIDParam(c, middleware.RecordIDParam)
	if !ok {
		return
	}

	rows, err := h.service.GetPassbook(c.Request.Context(), recordID)
	if err != nil {
		handleServiceError(c, err, "Failed to build passbook")
		return
	}

	out := make([]PassbookRowData, 0, len(rows))
	for _, row := range rows {
		out = append(out, PassbookRowData{
			SurveyNumber:        mapSurveyNumber(row.SurveyNumber),
			OwnerName:           row.OwnerName,
			AreaSquareMeters:    row.Area,
			Year:                row.Year,
			EntrySequenceNumber: row.EntrySequenceNumber,
		})
	}

	c.JSON(http.StatusOK, PassbookResponse{
		RecordID: recordID.String(),
		Rows:     out,
		Count:    len(out),
	})
}

// GetPreviousOwners handles GET /api/v1/records/:recordId/nondhs/:entryId/previous-owners.
// An entry id that is not yet in the chain is treated as a new entry placed last.
func (h *ChainHandler) GetPreviousOwners(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}

	var query PreviousOwnersQuery
	if !bindQuery(c, &query) {
		return
	}
	sn := models.SurveyNumber{Number: query.SurveyNumber, Kind: models.SurveyKind(query.Kind)}

	owners, err := h.service.GetPreviousOwners(c.Request.Context(), recordID, entryID, sn)
	if err != nil {
		handleServiceError(c, err, "Failed to compute previous owners")
		return
	}

	out := make([]PreviousOwnerData, 0, len(owners))
	for _, owner := range owners {
		out = append(out, PreviousOwnerData{Name: owner.Name, RemainingArea: mapArea(owner.Area)})
	}

	c.JSON(http.StatusOK, PreviousOwnersResponse{Owners: out, Count: len(out)})
}

// GetDateBounds handles GET /api/v1/records/:recordId/nondhs/:entryId/date-bounds.
func (h *ChainHandler) GetDateBounds(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}

	bounds, err := h.service.GetDateBounds(c.Request.Context(), recordID, entryID)
	if err != nil {
		handleServiceError(c, err, "Failed to compute date bounds")
		return
	}

	c.JSON(http.StatusOK, DateBoundsResponse{
		Min: formatDate(bounds.Min),
		Max: formatDate(bounds.Max),
	})
}

// UpdateStatus handles PUT /api/v1/records/:recordId/nondhs/:entryId/status.
func (h *ChainHandler) UpdateStatus(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing status update", map[string]interface{}{
			"entry_id": entryID,
			"status":   req.Status,
		})
	}

	res, err := h.service.UpdateStatus(c.Request.Context(), recordID, entryID, models.Status(req.Status), req.Reason)
	if err != nil {
		handleServiceError(c, err, "Failed to update status")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

// SetEffectiveDate handles PUT /api/v1/records/:recordId/nondhs/:entryId/effective-date.
func (h *ChainHandler) SetEffectiveDate(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}

	var req EffectiveDateRequest
	if !bindJSON(c, &req) {
		return
	}
	// The datetime tag has already checked the layout.
	date, _ := time.Parse(dateLayout, req.EffectiveDate)

	res, err := h.service.SetEffectiveDate(c.Request.Context(), recordID, entryID, date)
	if err != nil {
		handleServiceError(c, err, "Failed to set effective date")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

// SetAffectedEntries handles PUT /api/v1/records/:recordId/nondhs/:entryId/affected-entries.
func (h *ChainHandler) SetAffectedEntries(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}

	var req AffectedEntriesRequest
	if !bindJSON(c, &req) {
		return
	}

	affected := make([]models.AffectedEntry, 0, len(req.AffectedEntries))
	for _, in := range req.AffectedEntries {
		affected = append(affected, models.AffectedEntry{
			EntryID: uuid.MustParse(in.EntryID),
			Reason:  in.Reason,
		})
	}

	res, err := h.service.SetAffectedEntries(c.Request.Context(), recordID, entryID, affected)
	if err != nil {
		handleServiceError(c, err, "Failed to set affected entries")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

// SetEqualDistribution handles PUT /api/v1/records/:recordId/nondhs/:entryId/equal-distribution.
func (h *ChainHandler) SetEqualDistribution(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}

	var req EqualDistributionRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.SetEqualDistribution(c.Request.Context(), recordID, entryID, *req.Enabled)
	if err != nil {
		handleServiceError(c, err, "Failed to set equal distribution")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

// AddOwner handles POST /api/v1/records/:recordId/nondhs/:entryId/owners.
func (h *ChainHandler) AddOwner(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}

	var req AddOwnerRequest
	if !bindJSON(c, &req) {
		return
	}

	area, ok := bindArea(c, req.Area)
	if !ok {
		return
	}
	rel := models.OwnerRelation{
		OwnerName: req.OwnerName,
		Area:      area,
	}
	if in := req.SurveyNumberOverride; in != nil {
		rel.SurveyNumberOverride = &models.SurveyNumber{Number: in.Number, Kind: models.SurveyKind(in.Kind)}
	}

	res, err := h.service.AddOwnerRelation(c.Request.Context(), recordID, entryID, rel)
	if err != nil {
		handleServiceError(c, err, "Failed to add owner")
		return
	}

	c.JSON(http.StatusCreated, mapResultToDTO(recordID, res))
}

// UpdateOwnerArea handles PUT /api/v1/records/:recordId/nondhs/:entryId/owners/:relationId/area.
func (h *ChainHandler) UpdateOwnerArea(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}
	relationID, ok := parseUUIDParam(c, RelationIDParam)
	if !ok {
		return
	}

	var req UpdateAreaRequest
	if !bindJSON(c, &req) {
		return
	}

	area, ok := bindArea(c, req.Area)
	if !ok {
		return
	}

	res, err := h.service.UpdateOwnerArea(c.Request.Context(), recordID, entryID, relationID, area)
	if err != nil {
		handleServiceError(c, err, "Failed to update owner area")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

// RemoveOwner handles DELETE /api/v1/records/:recordId/nondhs/:entryId/owners/:relationId.
func (h *ChainHandler) RemoveOwner(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}
	relationID, ok := parseUUIDParam(c, RelationIDParam)
	if !ok {
		return
	}

	res, err := h.service.RemoveOwnerRelation(c.Request.Context(), recordID, entryID, relationID)
	if err != nil {
		handleServiceError(c, err, "Failed to remove owner")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

// DeleteEntry handles DELETE /api/v1/records/:recordId/nondhs/:entryId.
// The entry's detail and owner relations are removed with it.
func (h *ChainHandler) DeleteEntry(c *gin.Context) {
	recordID, entryID, ok := parseEntryParams(c)
	if !ok {
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Deleting nondh", map[string]interface{}{"entry_id": entryID})
	}

	res, err := h.service.DeleteEntry(c.Request.Context(), recordID, entryID)
	if err != nil {
		handleServiceError(c, err, "Failed to delete nondh")
		return
	}

	c.JSON(http.StatusOK, mapResultToDTO(recordID, res))
}

func (a *AreaInput) toModel() models.Area {
	if models.AreaUnit(a.Unit) == models.UnitAcreGuntha {
		return models.AcreGunthaArea(a.Acres, a.Gunthas)
	}
	return models.SquareMetersArea(a.SquareMeters)
}

// bindArea converts the area input and writes a 400 when it carries more
// decimal places than are stored.
func bindArea(c *gin.Context, in *AreaInput) (models.Area, bool) {
	area := in.toModel()
	if err := area.CheckScale(); err != nil {
		apierrors.FieldErrors(c, "Invalid area", map[string]string{"area": err.Error()})
		return models.Area{}, false
	}
	return area, true
}

// parseUUIDParam reads a uuid path parameter and writes a 400 when it is malformed.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name, map[string]interface{}{
			"param": name,
			"value": c.Param(name),
		})
		return uuid.Nil, false
	}
	return id, true
}

func parseEntryParams(c *gin.Context) (recordID, entryID uuid.UUID, ok bool) {
	if recordID, ok = parseUUIDParam(c, middleware.RecordIDParam); !ok {
		return
	}
	entryID, ok = parseUUIDParam(c, EntryIDParam)
	return
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		// Check if it's a validation error
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		// Generic bad request for other binding errors
		apierrors.BadRequest(c, "Invalid request body", nil)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return false
	}
	return true
}

// handleServiceError maps service and resolver errors onto the error envelope.
// message is used for unexpected errors only.
func handleServiceError(c *gin.Context, err error, message string) {
	var (
		fieldErr  *resolver.ValidationError
		fieldErrs resolver.ValidationErrors
		exceeded  *resolver.AreaExceededError
	)

	switch {
	case errors.As(err, &exceeded):
		maximum := exceeded.MaximumArea()
		apierrors.AreaExceeded(c, exceeded.Error(), map[string]interface{}{
			"limit":                   string(exceeded.Limit),
			"unit":                    string(maximum.Unit),
			"maximum":                 mapArea(maximum),
			"maximum_square_meters":   exceeded.Maximum,
			"requested_square_meters": exceeded.Requested,
		})
	case errors.As(err, &fieldErr):
		apierrors.FieldErrors(c, "Edit rejected", map[string]string{fieldErr.Field: fieldErr.Message})
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for _, e := range fieldErrs {
			fields[e.Field] = e.Message
		}
		apierrors.FieldErrors(c, "Edit rejected", fields)
	case errors.Is(err, services.ErrRecordNotFound):
		apierrors.NotFound(c, "Land record not found")
	case errors.Is(err, services.ErrEntryNotFound):
		apierrors.NotFound(c, "Nondh not found")
	case errors.Is(err, services.ErrDetailNotFound):
		apierrors.NotFound(c, "Nondh has no detail yet")
	case errors.Is(err, services.ErrRelationNotFound):
		apierrors.NotFound(c, "Owner relation not found")
	case resolver.IsFatal(err):
		apierrors.ChainInconsistent(c, "Chain of title could not be resolved", err)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}

// mapResultToDTO converts a resolved chain to its response DTO.
func mapResultToDTO(recordID uuid.UUID, res *resolver.Result) ChainResponse {
	entries := make([]ChainEntryData, 0, res.Chain.Len())
	for i, item := range res.Chain.Items {
		entry := ChainEntryData{
			ID:             item.Entry.ID.String(),
			DisplayNumber:  item.Entry.DisplayNumber,
			SequenceNumber: item.Entry.SequenceNumber,
			Position:       i + 1,
			SurveyNumbers:  make([]SurveyNumberData, 0, len(item.Entry.AffectedSurveyNumbers)),
		}
		for _, sn := range item.Entry.AffectedSurveyNumbers {
			entry.SurveyNumbers = append(entry.SurveyNumbers, mapSurveyNumber(sn))
		}
		if item.Detail != nil {
			entry.Detail = mapDetail(item.Detail)
		}
		entries = append(entries, entry)
	}

	warnings := make([]WarningData, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		data := WarningData{
			MissingID: w.MissingID.String(),
			Reference: w.Reference,
			Message:   w.Error(),
		}
		if w.EntryID != uuid.Nil {
			data.EntryID = w.EntryID.String()
		}
		warnings = append(warnings, data)
	}

	return ChainResponse{
		RecordID: recordID.String(),
		Entries:  entries,
		Warnings: warnings,
		Count:    len(entries),
	}
}

func mapDetail(d *models.EntryDetail) *DetailData {
	dto := &DetailData{
		ID:                d.ID.String(),
		Type:              string(d.Type),
		Status:            string(d.Status),
		InvalidReason:     d.InvalidReason,
		OldOwnerName:      d.OldOwnerName,
		EffectiveDate:     formatDate(d.EffectiveDate),
		EqualDistribution: d.EqualDistribution,
		AffectedEntries:   make([]AffectedEntryData, 0, len(d.AffectedEntries)),
		Owners:            make([]OwnerData, 0, len(d.OwnerRelations)),
	}
	if d.Order != nil {
		dto.Authority = string(d.Order.Authority)
		dto.Ganot = string(d.Order.Ganot)
	}
	for _, a := range d.AffectedEntries {
		dto.AffectedEntries = append(dto.AffectedEntries, AffectedEntryData{
			EntryID: a.EntryID.String(),
			Reason:  a.Reason,
		})
	}
	for _, rel := range d.OwnerRelations {
		owner := OwnerData{
			ID:        rel.ID.String(),
			OwnerName: rel.OwnerName,
			Area:      mapArea(rel.Area),
			IsValid:   rel.IsValid,
		}
		if rel.SurveyNumberOverride != nil {
			sn := mapSurveyNumber(*rel.SurveyNumberOverride)
			owner.SurveyNumberOverride = &sn
		}
		dto.Owners = append(dto.Owners, owner)
	}
	return dto
}

func mapArea(a models.Area) AreaData {
	return AreaData{
		Unit:              string(a.Unit),
		SquareMeters:      a.SquareMeters,
		Acres:             a.Acres,
		Gunthas:           a.Gunthas,
		TotalSquareMeters: a.InSquareMeters(),
	}
}

func mapSurveyNumber(sn models.SurveyNumber) SurveyNumberData {
	return SurveyNumberData{Number: sn.Number, Kind: string(sn.Kind)}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
