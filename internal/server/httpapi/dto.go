package httpapi

import (
	"github.com/opensource-kemini/kemini-backend/internal/server/models"
	"github.com/opensource-kemini/kemini-backend/internal/server/services"
)

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

type updateUserRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

type environmentRequest struct {
	Name string `json:"name"`
}

type uploadURLRequest struct {
	FileType string `json:"fileType"`
	FileName string `json:"fileName"`
}

type userResponse struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Status      string `json:"status"`
}

type environmentFileResponse struct {
	ID               int64  `json:"id"`
	FileType         string `json:"fileType"`
	OriginalFileName string `json:"originalFileName"`
	FileURL          string `json:"fileUrl"`
}

type environmentResponse struct {
	ID     int64                      `json:"id"`
	Name   string                     `json:"name"`
	UserID int64                      `json:"userId"`
	Files  []*environmentFileResponse `json:"files"`
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name, PhoneNumber: u.PhoneNumber, Status: u.Status}
}

func toEnvironmentResponse(agg *services.EnvironmentAggregate) environmentResponse {
	files := make([]*environmentFileResponse, 0, len(agg.Files))
	for _, f := range agg.Files {
		files = append(files, &environmentFileResponse{
			ID:               f.ID,
			FileType:         f.FileType,
			OriginalFileName: f.FileName,
			FileURL:          f.FileURL,
		})
	}
	return environmentResponse{ID: agg.ID, Name: agg.Name, UserID: agg.UserID, Files: files}
}
