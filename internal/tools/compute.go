package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stem-chat/internal/logger"
)

// performOCRTool asks the client to extract text from an image. The
// actual recognition runs in the browser; the tool just echoes the
// request so the client knows which image to process.
func performOCRTool() *Tool {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"imageUrl": {
				"type": "string",
				"description": "URL or data URI of the image to read text from"
			},
			"language": {
				"type": "string",
				"description": "Expected language of the text, e.g. eng"
			}
		},
		"required": ["imageUrl"],
		"additionalProperties": false
	}`)

	return &Tool{
		Name:        "performOCR",
		Description: "Extract text from an image given its URL.",
		Schema:      schema,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p struct {
				ImageURL string `json:"imageUrl"`
				Language string `json:"language"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "performOCR", Detail: err.Error()}
			}
			if p.Language == "" {
				p.Language = "eng"
			}
			return &Result{Payload: map[string]interface{}{
				"type":     "ocr",
				"imageUrl": p.ImageURL,
				"language": p.Language,
			}}, nil
		},
	}
}

// getWeatherTool fetches current conditions from the Open-Meteo API,
// which needs no key.
func getWeatherTool() *Tool {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"latitude": {
				"type": "number",
				"minimum": -90,
				"maximum": 90,
				"description": "Latitude of the location"
			},
			"longitude": {
				"type": "number",
				"minimum": -180,
				"maximum": 180,
				"description": "Longitude of the location"
			},
			"location": {
				"type": "string",
				"description": "Human readable name of the location, echoed back in the result"
			}
		},
		"required": ["latitude", "longitude"],
		"additionalProperties": false
	}`)

	client := &http.Client{Timeout: 10 * time.Second}

	return &Tool{
		Name:        "getWeather",
		Description: "Get current weather conditions for a location given its coordinates.",
		Schema:      schema,
		Execute: func(ctx context.Context, ec ExecContext, args json.RawMessage) (*Result, error) {
			var p struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
				Location  string  `json:"location"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, &ValidationError{Tool: "getWeather", Detail: err.Error()}
			}

			q := url.Values{}
			q.Set("latitude", fmt.Sprintf("%.4f", p.Latitude))
			q.Set("longitude", fmt.Sprintf("%.4f", p.Longitude))
			q.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet,
				"https://api.open-meteo.com/v1/forecast?"+q.Encode(), nil)
			if err != nil {
				return nil, fmt.Errorf("getWeather: %w", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("getWeather: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				logger.Log.WithField("status", resp.StatusCode).Warn("Weather API returned non-OK status")
				return nil, fmt.Errorf("getWeather: upstream status %d: %s", resp.StatusCode, string(body))
			}

			var payload struct {
				Current map[string]interface{} `json:"current"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return nil, fmt.Errorf("getWeather: decode response: %w", err)
			}

			result := map[string]interface{}{
				"type":      "weather",
				"latitude":  p.Latitude,
				"longitude": p.Longitude,
				"current":   payload.Current,
			}
			if p.Location != "" {
				result["location"] = p.Location
			}
			return &Result{Payload: result}, nil
		},
	}
}
