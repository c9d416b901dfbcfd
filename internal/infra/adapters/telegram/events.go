package telegram

import (
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/flow"
)

// classifyCallback maps an inline-button payload to a flow event. Unknown
// payloads fall through as plain button events; the engine reprompts or
// resets on anything it does not expect.
func classifyCallback(data string) flow.Event {
	switch data {
	case flow.CbCancel:
		return flow.Event{Kind: flow.EventCancel}
	case flow.CbBack:
		return flow.Event{Kind: flow.EventBack}
	case flow.CbLightVehicle:
		return flow.Event{Kind: flow.EventCategory, Category: model.CategoryLight}
	case flow.CbCargoVehicle:
		return flow.Event{Kind: flow.EventCategory, Category: model.CategoryCargo}
	default:
		return flow.Event{Kind: flow.EventButton, Button: data}
	}
}

// textRoutes maps localized reply-menu labels onto the same events their
// inline counterparts produce, so typed menu words keep working after the
// keyboard message scrolls away.
func buildTextRoutes(texts flow.Texts) map[string]flow.Event {
	return map[string]flow.Event{
		texts.T("btn_light"):  {Kind: flow.EventCategory, Category: model.CategoryLight},
		texts.T("btn_cargo"):  {Kind: flow.EventCategory, Category: model.CategoryCargo},
		texts.T("btn_cancel"): {Kind: flow.EventCancel},
		texts.T("btn_back"):   {Kind: flow.EventBack},
	}
}

func classifyText(routes map[string]flow.Event, text string) flow.Event {
	if ev, ok := routes[text]; ok {
		return ev
	}
	return flow.Event{Kind: flow.EventText, Text: text}
}
