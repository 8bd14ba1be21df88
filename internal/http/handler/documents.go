package handler

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"openshelf/internal/apperr"
	"openshelf/internal/http/middleware"
	"openshelf/internal/model"
	"openshelf/internal/service"
)

const (
	fieldPDF   = "file"
	fieldCover = "coverImage"
)

type documentFields struct {
	Title    string `json:"title" form:"title"`
	Category string `json:"category" form:"category"`
}

// UploadDocument godoc
// @Summary Upload a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param title formData string false "Title"
// @Param category formData string false "Category"
// @Param file formData file true "PDF"
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /upload-files [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pdf, cover, err := fileParts(c)
		if err != nil {
			return err
		}
		doc, err := svc.Upload(c.UserContext(), service.UploadInput{
			Title:    strings.TrimSpace(c.FormValue("title")),
			Category: strings.TrimSpace(c.FormValue("category")),
			PDF:      pdf,
			Cover:    cover,
			Owner:    middleware.CurrentUser(c),
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "data": doc})
	}
}

// ListDocuments godoc
// @Summary List all documents
// @Tags documents
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /get-files [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "data": docs})
	}
}

// GetDocument godoc
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /files/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "data": doc})
	}
}

// GetDocumentPDF godoc
// @Summary Download the PDF of a document
// @Tags documents
// @Produce application/pdf
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /files/{id}/pdf [get]
func GetDocumentPDF(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := svc.GetPDFBytes(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentLength, strconv.Itoa(len(data)))
		return c.Send(data)
	}
}

// GetDocumentCover godoc
// @Summary Download the cover image of a document
// @Tags documents
// @Produce image/jpeg,image/png
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /files/{id}/cover [get]
func GetDocumentCover(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, contentType, err := svc.GetCoverBytes(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(data)
	}
}

// UpdateDocument godoc
// @Summary Update a document
// @Description Owner only. Accepts multipart (optional file and coverImage) or JSON.
// @Tags documents
// @Accept multipart/form-data,json
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /files/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var fields documentFields
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&fields); err != nil {
				return apperr.Validation("Invalid request body")
			}
		}
		pdf, cover, err := fileParts(c)
		if err != nil {
			return err
		}
		doc, err := svc.Update(c.UserContext(), c.Params("id"), middleware.CurrentUser(c), service.UpdateInput{
			Fields: model.DocumentUpdate{
				Title:    strings.TrimSpace(fields.Title),
				Category: strings.TrimSpace(fields.Category),
			},
			PDF:   pdf,
			Cover: cover,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "data": doc})
	}
}

// DeleteDocument godoc
// @Summary Delete a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /files/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id"), middleware.CurrentUser(c)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// ListPurchased godoc
// @Summary List documents bought by the caller
// @Tags documents
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /purchased-books [get]
func ListPurchased(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.ListPurchased(c.UserContext(), middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "data": docs})
	}
}

// fileParts opens the optional pdf and cover parts of a multipart request.
// Non-multipart requests carry no parts.
func fileParts(c *fiber.Ctx) (pdf, cover *model.FilePart, err error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, apperr.Validation("Invalid multipart form")
	}
	if pdf, err = openPart(form, fieldPDF); err != nil {
		return nil, nil, err
	}
	if cover, err = openPart(form, fieldCover); err != nil {
		if pdf != nil {
			pdf.Body.Close()
		}
		return nil, nil, err
	}
	return pdf, cover, nil
}

func openPart(form *multipart.Form, field string) (*model.FilePart, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	return &model.FilePart{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, nil
}
