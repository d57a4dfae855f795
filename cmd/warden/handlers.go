package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flocksocial/integrity/account"
	"github.com/flocksocial/integrity/monetize"

	"github.com/labstack/echo/v4"
)

type GenericError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func (srv *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var errorMessage string
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		errorMessage = fmt.Sprintf("%s", he.Message)
	}
	if code >= 500 {
		srv.logger.Warn("warden-http-internal-error", "err", err)
	}
	c.JSON(code, GenericStatus{Status: "error", Daemon: "warden", Message: errorMessage})
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "warden"})
}

func notFound(c echo.Context, accountID string) error {
	return c.JSON(404, GenericError{
		Error:   "AccountNotFound",
		Message: fmt.Sprintf("no integrity record for account %s", accountID),
	})
}

func internalError(c echo.Context, err error) error {
	return c.JSON(500, GenericError{
		Error:   "InternalError",
		Message: fmt.Sprintf("%s", err),
	})
}

type upsertAccountBody struct {
	Followers int64 `json:"followers"`
	Verified  bool  `json:"verified"`
}

func (srv *Server) HandleUpsertAccount(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	var body upsertAccountBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, GenericError{Error: "InvalidBody", Message: fmt.Sprintf("%s", err)})
	}
	if body.Followers < 0 {
		return c.JSON(400, GenericError{Error: "InvalidFollowerCount", Message: "followers must be non-negative"})
	}

	acct, err := srv.engine.UpsertAccount(ctx, accountID, body.Followers, body.Verified)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(200, acct)
}

func (srv *Server) HandleGetAccount(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	acct, err := srv.engine.GetAccount(ctx, accountID)
	if err != nil {
		return internalError(c, err)
	}
	if acct == nil {
		return notFound(c, accountID)
	}
	return c.JSON(200, acct)
}

func (srv *Server) HandleDetect(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	res, err := srv.engine.RunAnomalyDetection(ctx, accountID)
	if err != nil {
		return internalError(c, err)
	}
	if res == nil {
		return notFound(c, accountID)
	}
	return c.JSON(200, res)
}

func (srv *Server) HandleApplySanctions(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	res, err := srv.engine.ApplySanctions(ctx, accountID)
	if err != nil {
		return internalError(c, err)
	}
	if res == nil {
		return notFound(c, accountID)
	}
	return c.JSON(200, res)
}

func (srv *Server) HandleCleanSanctions(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	res, err := srv.engine.CleanExpiredSanctions(ctx, accountID)
	if err != nil {
		return internalError(c, err)
	}
	if res == nil {
		return notFound(c, accountID)
	}
	return c.JSON(200, res)
}

type manualSanctionBody struct {
	Type         string `json:"type"`
	Level        string `json:"level"`
	DurationDays int    `json:"durationDays"`
	Reason       string `json:"reason"`
}

func (srv *Server) HandleManualSanction(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	var body manualSanctionBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, GenericError{Error: "InvalidBody", Message: fmt.Sprintf("%s", err)})
	}

	st := account.SanctionType(body.Type)
	switch st {
	case account.SanctionReachReduction, account.SanctionMonetizationBlock, account.SanctionBadgeRemoval:
	default:
		return c.JSON(400, GenericError{
			Error:   "InvalidSanctionType",
			Message: fmt.Sprintf("unknown sanction type: %s", body.Type),
		})
	}
	level := account.SanctionLevel(body.Level)
	switch level {
	case account.LevelWarning, account.LevelModerate, account.LevelSevere:
	default:
		return c.JSON(400, GenericError{
			Error:   "InvalidSanctionLevel",
			Message: fmt.Sprintf("unknown sanction level: %s", body.Level),
		})
	}
	if body.DurationDays <= 0 {
		return c.JSON(400, GenericError{
			Error:   "InvalidDuration",
			Message: "durationDays must be positive",
		})
	}

	res, err := srv.engine.ApplySanctionManual(ctx, accountID, st, level, body.DurationDays, body.Reason)
	if err != nil {
		return internalError(c, err)
	}
	if res == nil {
		return notFound(c, accountID)
	}
	return c.JSON(200, res)
}

func (srv *Server) HandleLiftSanction(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	st := account.SanctionType(c.Param("type"))
	switch st {
	case account.SanctionReachReduction, account.SanctionMonetizationBlock, account.SanctionBadgeRemoval:
	default:
		return c.JSON(400, GenericError{
			Error:   "InvalidSanctionType",
			Message: fmt.Sprintf("unknown sanction type: %s", c.Param("type")),
		})
	}

	res, err := srv.engine.LiftSanction(ctx, accountID, st)
	if err != nil {
		return internalError(c, err)
	}
	if res == nil {
		return notFound(c, accountID)
	}
	return c.JSON(200, res)
}

type postEventBody struct {
	PostedAt *time.Time `json:"postedAt"`
}

func (srv *Server) HandlePostEvent(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	var body postEventBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, GenericError{Error: "InvalidBody", Message: fmt.Sprintf("%s", err)})
	}
	postedAt := srv.engine.Now()
	if body.PostedAt != nil {
		postedAt = *body.PostedAt
	}

	if err := srv.engine.ProcessPostEvent(ctx, accountID, postedAt); err != nil {
		return internalError(c, err)
	}
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "warden"})
}

type engagementBody struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

func (srv *Server) HandleEngagement(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	var body engagementBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, GenericError{Error: "InvalidBody", Message: fmt.Sprintf("%s", err)})
	}

	if err := srv.engine.RecordEngagement(ctx, accountID, body.Likes, body.Comments); err != nil {
		return internalError(c, err)
	}
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "warden"})
}

type followerSampleBody struct {
	Followers int64      `json:"followers"`
	At        *time.Time `json:"at"`
}

func (srv *Server) HandleFollowerSample(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	var body followerSampleBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, GenericError{Error: "InvalidBody", Message: fmt.Sprintf("%s", err)})
	}
	if body.Followers < 0 {
		return c.JSON(400, GenericError{Error: "InvalidFollowerCount", Message: "followers must be non-negative"})
	}
	at := srv.engine.Now()
	if body.At != nil {
		at = *body.At
	}

	if err := srv.engine.RecordFollowerSample(ctx, accountID, body.Followers, at); err != nil {
		return internalError(c, err)
	}
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "warden"})
}

func (srv *Server) HandleUpdateMetrics(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	var m monetize.Metrics
	if err := c.Bind(&m); err != nil {
		return c.JSON(400, GenericError{Error: "InvalidBody", Message: fmt.Sprintf("%s", err)})
	}

	if err := srv.engine.UpdateMetrics(ctx, accountID, m); err != nil {
		return internalError(c, err)
	}
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "warden"})
}

func (srv *Server) HandleRecalculateScore(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	res, err := srv.engine.RecalculateScore(ctx, accountID)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(200, res)
}

type eligibilityResponse struct {
	AccountID string `json:"accountId"`
	Eligible  bool   `json:"eligible"`
}

func (srv *Server) HandleEligibility(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	eligible, err := srv.engine.CheckEligibility(ctx, accountID)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(200, eligibilityResponse{AccountID: accountID, Eligible: eligible})
}

type ledgerBody struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note,omitempty"`
}

type ledgerResponse struct {
	AccountID string `json:"accountId"`
	Balance   int64  `json:"balance"`
}

func (srv *Server) HandleRecordEarning(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	var body ledgerBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, GenericError{Error: "InvalidBody", Message: fmt.Sprintf("%s", err)})
	}

	balance, err := srv.engine.RecordEarning(ctx, accountID, body.Amount, body.Note)
	if err != nil {
		if errors.Is(err, monetize.ErrNonPositiveEarning) {
			return c.JSON(400, GenericError{Error: "InvalidAmount", Message: fmt.Sprintf("%s", err)})
		}
		return internalError(c, err)
	}
	return c.JSON(200, ledgerResponse{AccountID: accountID, Balance: balance})
}

func (srv *Server) HandleWithdraw(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := c.Param("id")

	var body ledgerBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, GenericError{Error: "InvalidBody", Message: fmt.Sprintf("%s", err)})
	}

	balance, err := srv.engine.Withdraw(ctx, accountID, body.Amount)
	if err != nil {
		switch {
		case errors.Is(err, monetize.ErrNonPositiveWithdrawal):
			return c.JSON(400, GenericError{Error: "InvalidAmount", Message: fmt.Sprintf("%s", err)})
		case errors.Is(err, monetize.ErrBelowMinimumWithdrawal):
			return c.JSON(400, GenericError{Error: "BelowMinimumWithdrawal", Message: fmt.Sprintf("%s", err)})
		case errors.Is(err, monetize.ErrInsufficientBalance):
			return c.JSON(400, GenericError{Error: "InsufficientBalance", Message: fmt.Sprintf("%s", err)})
		}
		return internalError(c, err)
	}
	return c.JSON(200, ledgerResponse{AccountID: accountID, Balance: balance})
}

func (srv *Server) HandleSweep(c echo.Context) error {
	ctx := c.Request().Context()

	res, err := srv.sweeper.BatchReconcile(ctx)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(200, res)
}
