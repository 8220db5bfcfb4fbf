package types

type CreateNoteRequest struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	PlainText string  `json:"plain_text"`
	FolderID  *string `json:"folder_id,omitempty"`
	Favourite *bool   `json:"favourite,omitempty"`
}

type UpdateNoteRequest struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	PlainText *string `json:"plain_text,omitempty"`
	FolderID  *string `json:"folder_id,omitempty"`
	Favourite *bool   `json:"favourite,omitempty"`
}

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

type UpdateFolderRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}
