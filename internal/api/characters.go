package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// handleListCharacters pages through the external catalog so users can
// pick a character to associate with a task.
//
// GET /characters?page=n
func (s *Server) handleListCharacters(c *gin.Context) {
	page := parseQueryInt(c, "page", 1)
	if page <= 0 {
		page = 1
	}

	characters, info, err := s.catalog.Characters(c.Request.Context(), page)
	if err != nil {
		// Browsing has nothing to degrade to, unlike list enrichment.
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": characters,
		"info":    info,
	})
}

// parseQueryInt parses an integer query parameter with a default.
func parseQueryInt(c *gin.Context, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	iv, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return iv
}
