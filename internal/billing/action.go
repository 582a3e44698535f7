package billing

import (
	"fmt"

	"github.com/yassirar77-cloud/binaapp-sub001/internal/plans"
)

// Action is a gated operation a user can attempt. Create-style actions
// consume quota; their delete counterparts release it.
type Action string

const (
	ActionCreateWebsite   Action = "create_website"
	ActionAddMenuItem     Action = "add_menu_item"
	ActionGenerateAIHero  Action = "generate_ai_hero"
	ActionGenerateAIImage Action = "generate_ai_image"
	ActionAddZone         Action = "add_zone"
	ActionAddRider        Action = "add_rider"

	ActionDeleteWebsite  Action = "delete_website"
	ActionDeleteMenuItem Action = "delete_menu_item"
	ActionDeleteZone     Action = "delete_zone"
	ActionDeleteRider    Action = "delete_rider"
)

var actionResources = map[Action]plans.ResourceType{
	ActionCreateWebsite:   plans.ResourceWebsite,
	ActionAddMenuItem:     plans.ResourceMenuItem,
	ActionGenerateAIHero:  plans.ResourceAIHero,
	ActionGenerateAIImage: plans.ResourceAIMenuImage,
	ActionAddZone:         plans.ResourceDeliveryZone,
	ActionAddRider:        plans.ResourceRider,

	ActionDeleteWebsite:  plans.ResourceWebsite,
	ActionDeleteMenuItem: plans.ResourceMenuItem,
	ActionDeleteZone:     plans.ResourceDeliveryZone,
	ActionDeleteRider:    plans.ResourceRider,
}

// Resource maps an action to the resource type it counts against.
func (a Action) Resource() (plans.ResourceType, error) {
	res, ok := actionResources[a]
	if !ok {
		return "", fmt.Errorf("no resource mapping for action %q", a)
	}
	return res, nil
}
