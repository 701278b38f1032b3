package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"

	"diagnosis-api/internal/diagnosis"
)

// savePayloadSchema validates the mock-mode save payload: a form with at
// least the identifying fields, plus the engine reply that must have
// succeeded.
const savePayloadSchema = `{
	"type": "object",
	"required": ["formData", "apiResponse"],
	"properties": {
		"formData": {
			"type": "object",
			"required": ["company_name", "task1_name"]
		},
		"apiResponse": {
			"type": "object",
			"required": ["status"],
			"properties": {
				"status": {"enum": ["success"]}
			}
		},
		"source": {"type": "string"}
	}
}`

var saveSchemaLoader = gojsonschema.NewStringLoader(savePayloadSchema)

// handleDiagnosisSave persists a row submitted by the client after a
// mock-mode diagnosis. With the real engine the diagnosis endpoint saves
// inline, so this endpoint only ever sees mock results. Insert failures are
// reported as saved:false, never as an HTTP error: losing a mock row is not
// worth breaking the result screen.
func (s *Server) handleDiagnosisSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.store == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "saved": false})
			return
		}

		body, err := decodeJSONBody(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid JSON"})
			return
		}

		result, err := gojsonschema.Validate(saveSchemaLoader, gojsonschema.NewGoLoader(body))
		if err != nil || !result.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid payload"})
			return
		}

		payload := body.(map[string]interface{})
		form := payload["formData"].(map[string]interface{})
		apiResp := diagnosis.EngineResponseFromMap(payload["apiResponse"].(map[string]interface{}))

		source, _ := payload["source"].(string)
		if source == "" {
			source = "mock"
		}

		row := diagnosis.NewRow(form, apiResp, source)
		if err := s.store.Insert(c.Request.Context(), row); err != nil {
			s.logger.Error("mock diagnosis row insert failed", map[string]interface{}{
				"error": err.Error(),
			})
			c.JSON(http.StatusOK, gin.H{"status": "ok", "saved": false})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "saved": true})
	}
}
