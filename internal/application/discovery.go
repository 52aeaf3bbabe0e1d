package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/entity"
)

// ExposurePolicy decides which hub entities are announced to the assistant.
type ExposurePolicy struct {
	Domains         []string
	EntitySuffixes  map[string]string
	ExposeByDefault bool
}

type Discovery struct {
	ha      entity.HomeAssistant
	policy  ExposurePolicy
	allowed map[string]bool
	logger  *slog.Logger
}

func NewDiscovery(ha entity.HomeAssistant, policy ExposurePolicy, logger *slog.Logger) *Discovery {
	allowed := make(map[string]bool, len(policy.Domains))
	for _, d := range policy.Domains {
		allowed[d] = true
	}
	return &Discovery{
		ha:      ha,
		policy:  policy,
		allowed: allowed,
		logger:  logger,
	}
}

// Discover returns the discovery payload. Failures are logged and answered
// with an empty endpoint list.
func (d *Discovery) Discover(ctx context.Context) domain.DiscoveryPayload {
	appliances, err := d.Appliances(ctx)
	if err != nil {
		d.logger.Error("discovery failed", "error", err)
		return domain.DiscoveryPayload{Endpoints: []domain.Appliance{}}
	}
	return domain.DiscoveryPayload{Endpoints: appliances}
}

// Appliances fetches every hub entity and projects the exposed ones.
func (d *Discovery) Appliances(ctx context.Context) ([]domain.Appliance, error) {
	states, err := d.ha.GetStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}

	appliances := make([]domain.Appliance, 0, len(states))
	for i := range states {
		st := &states[i]
		if !d.allowed[st.Domain()] || !d.exposed(st) {
			continue
		}

		appliance, err := d.appliance(st)
		if err != nil {
			d.logger.Warn("skipping entity", "entity_id", st.EntityID, "error", err)
			continue
		}
		appliances = append(appliances, appliance)
	}

	d.logger.Info("discovery complete", "entities", len(states), "exposed", len(appliances))
	return appliances, nil
}

// exposed applies haaska_hidden, then hidden, then the default.
func (d *Discovery) exposed(st *domain.State) bool {
	if hidden, ok := st.Bool("haaska_hidden"); ok {
		return !hidden
	}
	if hidden, ok := st.Bool("hidden"); ok {
		return !hidden
	}
	return d.policy.ExposeByDefault
}

func (d *Discovery) appliance(st *domain.State) (domain.Appliance, error) {
	adapter, err := entity.New(d.ha, st.EntityID, supportedFeatures(st))
	if err != nil {
		return domain.Appliance{}, err
	}
	entityDomain := st.Domain()

	name := st.String("haaska_name")
	if name == "" {
		name = st.String("friendly_name")
		if name == "" {
			name = st.EntityID
		}
		if suffix := d.policy.EntitySuffixes[entityDomain]; suffix != "" {
			name += " " + suffix
		}
	}

	desc := st.String("haaska_desc")
	if desc == "" {
		title := cases.Title(language.English)
		desc = "Home Assistant " + title.String(strings.ReplaceAll(entityDomain, "_", " "))
	}

	category, ok := domain.DisplayCategories[adapter.Domain()]
	if !ok {
		category = domain.CategoryOther
	}

	return domain.Appliance{
		EndpointID:        domain.EndpointIDFromEntity(st.EntityID),
		ManufacturerName:  domain.ManufacturerName,
		FriendlyName:      name,
		Description:       desc,
		DisplayCategories: []string{category},
		Capabilities:      entity.Capabilities(adapter),
	}, nil
}
