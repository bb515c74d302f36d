package client

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
)

func (c *Client) GetStatus() (string, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get status")
	}
	return parseStringResponse(ret)
}

func (c *Client) GetPowerState() (*powerinfo.PowerState, error) {
	ret, err := c.Get("/power-state")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get power state")
	}

	var st powerinfo.PowerState
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal power state")
	}
	return &st, nil
}

func (c *Client) Refresh() (*powerinfo.PowerState, error) {
	ret, err := c.Post("/refresh", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to refresh power state")
	}

	var st powerinfo.PowerState
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal power state")
	}
	return &st, nil
}

func (c *Client) GetRefreshes() ([]string, error) {
	ret, err := c.Get("/refreshes")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get refresh history")
	}

	var records []string
	if err := json.Unmarshal([]byte(ret), &records); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal refresh history")
	}
	return records, nil
}

func (c *Client) GetEmoji() (string, error) {
	ret, err := c.Get("/emoji")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get emoji")
	}
	return parseStringResponse(ret)
}

func (c *Client) SetEmoji(emoji string) (string, error) {
	payload, err := json.Marshal(emoji)
	if err != nil {
		return "", err
	}
	ret, err := c.Put("/emoji", string(payload))
	if err != nil {
		return "", err
	}
	return parseStringResponse(ret)
}

func (c *Client) GetAnimation() (*animation.Frame, error) {
	ret, err := c.Get("/animation")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get animation")
	}

	var f animation.Frame
	if err := json.Unmarshal([]byte(ret), &f); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal animation frame")
	}
	return &f, nil
}

// StartAnimation reports whether a new session was started. It is false
// when one is already running.
func (c *Client) StartAnimation() (bool, error) {
	ret, err := c.Post("/animation", "")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to start animation")
	}
	return parseBoolResponse(ret)
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return parseStringResponse(ret)
}

func parseBoolResponse(resp string) (bool, error) {
	var b bool
	if err := json.Unmarshal([]byte(resp), &b); err != nil {
		return false, pkgerrors.Errorf("unexpected response: %s", resp)
	}
	return b, nil
}

func parseStringResponse(resp string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(resp), &s); err != nil {
		return "", pkgerrors.Errorf("unexpected response: %s", resp)
	}
	return s, nil
}
