package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
)

var errEmptyBody = errors.New("request body is empty")

// bindEnvelope decodes the body into obj. Clients may wrap the payload as
// {"<key>": {...}} or send the object flat; both decode the same way.
func bindEnvelope(c *gin.Context, key string, obj interface{}) error {
	body, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}

	var envelope map[string]json.RawMessage
	if json.Unmarshal(body, &envelope) == nil {
		if inner, ok := envelope[key]; ok {
			if err := json.Unmarshal(inner, obj); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			return nil
		}
	}
	return json.Unmarshal(body, obj)
}
