package adapter

// PhotoArchiver moves uploaded photo bytes from the chat platform onto local
// disk, off the message-handling path. Enqueue never blocks; a full queue
// drops the job and the file simply keeps its platform reference only.
type PhotoArchiver interface {
	Enqueue(fileID, requestID, telegramFileID string)
}
