package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/rand"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// MessageResponse acknowledges a request that has nothing else to return
type MessageResponse struct {
	Message string `json:"message"`
}

// SendJSONResponse sends a JSON response with the given status code and data
func SendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out, nothing left but a plain error
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SendMessage sends a {"message": ...} acknowledgement
func SendMessage(w http.ResponseWriter, status int, message string) {
	SendJSONResponse(w, status, MessageResponse{Message: message})
}

// HandleError standardizes error handling by sending a JSON error response
func HandleError(w http.ResponseWriter, status int, kind string, message string) {
	SendJSONResponse(w, status, ErrorResponse{
		Kind:    kind,
		Message: message,
	})
}

// SaveImageFile saves the uploaded image file under root/table with a new name.
// The returned path is slash separated and relative to root.
func SaveImageFile(file io.Reader, root string, table string, filename string) (string, error) {
	// Create directory structure if it doesn't exist
	fullPath := filepath.Join(root, table)
	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return "", err
	}

	// Generate new filename
	randomNumber := rand.Intn(1000)
	timestamp := time.Now().Unix()
	ext := strings.ToLower(filepath.Ext(filename))
	newFileName := fmt.Sprintf("%s_%d_%d%s", filepath.Base(table), timestamp, randomNumber, ext)
	newFilePath := filepath.Join(fullPath, newFileName)

	// Save the file
	destFile, err := os.Create(newFilePath)
	if err != nil {
		return "", err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, file); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(table, newFileName)), nil
}

// DeleteImageFile deletes the specified file from the filesystem.
// A file that is already gone is not an error.
func DeleteImageFile(filePath string) error {
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// HashPassword hashes a plaintext password using bcrypt
func HashPassword(password string) (string, error) {
	hashPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashPassword), nil
}

func CheckPassword(hashedPassword, plainPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
}

// ErrorWithTrace prefixes err with the caller's file:line and a message.
// The original error stays reachable through errors.Is / errors.As.
func ErrorWithTrace(err error, errMesssage string) error {
	if err != nil {
		// Skip 1 level to get the caller of this function
		_, file, line, _ := runtime.Caller(1)
		return fmt.Errorf("%s:%d: %s: %w", filepath.Base(file), line, errMesssage, err)
	}
	return nil
}
