package providers

import (
	"github.com/samber/do/v2"

	"github.com/moodtrail/moodtrail/internal/logger"
	"github.com/moodtrail/moodtrail/internal/service"
	"github.com/moodtrail/moodtrail/internal/validation"
)

// ProvideValidator provides the shared struct validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewTagService(storeHandle.Repository, log.Component("tags")), nil
}

// ProvideActionService provides the coping action service.
func ProvideActionService(i do.Injector) (*service.ActionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewActionService(storeHandle.Repository, log.Component("actions")), nil
}

// ProvideCheckInService provides the check-in service.
func ProvideCheckInService(i do.Injector) (*service.CheckInService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewCheckInService(storeHandle.Repository, validator, log.Component("checkins")), nil
}

// ProvideInsightService provides the insight aggregation service.
func ProvideInsightService(i do.Injector) (*service.InsightService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewInsightService(storeHandle.Repository, log.Component("insights")), nil
}
