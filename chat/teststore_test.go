package chat

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/hrygo/chorus/internal/profile"
	"github.com/hrygo/chorus/store"
)

// memoryDriver is an in-memory store.Driver for tests. It mirrors the
// relational schema's behavior: atomic turn numbering, unique selection
// constraints, and delete cascades.
type memoryDriver struct {
	mu sync.Mutex

	conversations map[int32]*store.Conversation
	folders       map[int32]*store.Folder
	messages      map[int64]*store.UserMessage
	responses     map[int64]*store.EngineResponse
	blocks        map[int64]*store.ResponseBlock
	preferred     map[int64]*store.PreferredBlock
	engines       map[int64]*store.ConversationEngine

	nextID32 int32
	nextID64 int64
}

func newMemoryDriver() *memoryDriver {
	return &memoryDriver{
		conversations: map[int32]*store.Conversation{},
		folders:       map[int32]*store.Folder{},
		messages:      map[int64]*store.UserMessage{},
		responses:     map[int64]*store.EngineResponse{},
		blocks:        map[int64]*store.ResponseBlock{},
		preferred:     map[int64]*store.PreferredBlock{},
		engines:       map[int64]*store.ConversationEngine{},
	}
}

func newTestStore() *store.Store {
	return store.New(newMemoryDriver(), &profile.Profile{Mode: "dev", Driver: "sqlite"})
}

func (d *memoryDriver) id32() int32 {
	d.nextID32++
	return d.nextID32
}

func (d *memoryDriver) id64() int64 {
	d.nextID64++
	return d.nextID64
}

func (*memoryDriver) GetDB() *sql.DB { return nil }

func (*memoryDriver) Close() error { return nil }

func (*memoryDriver) IsInitialized(context.Context) (bool, error) { return true, nil }

func (*memoryDriver) Migrate(context.Context) error { return nil }

func (d *memoryDriver) CreateConversation(_ context.Context, create *store.Conversation) (*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conversation := *create
	conversation.ID = d.id32()
	d.conversations[conversation.ID] = &conversation
	result := conversation
	return &result, nil
}

func (d *memoryDriver) ListConversations(_ context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []*store.Conversation{}
	for _, conversation := range d.conversations {
		if find.ID != nil && conversation.ID != *find.ID {
			continue
		}
		if find.UID != nil && conversation.UID != *find.UID {
			continue
		}
		if find.CreatorID != nil && conversation.CreatorID != *find.CreatorID {
			continue
		}
		if find.FolderID != nil && (conversation.FolderID == nil || *conversation.FolderID != *find.FolderID) {
			continue
		}
		if find.Pinned != nil && conversation.Pinned != *find.Pinned {
			continue
		}
		if find.RowStatus != nil && conversation.RowStatus != *find.RowStatus {
			continue
		}
		copied := *conversation
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (d *memoryDriver) UpdateConversation(_ context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conversation, ok := d.conversations[update.ID]
	if !ok {
		return nil, nil
	}
	if update.Title != nil {
		conversation.Title = *update.Title
	}
	if update.TitleSource != nil {
		conversation.TitleSource = *update.TitleSource
	}
	if update.Pinned != nil {
		conversation.Pinned = *update.Pinned
	}
	if update.RowStatus != nil {
		conversation.RowStatus = *update.RowStatus
	}
	if update.UpdatedTs != nil {
		conversation.UpdatedTs = *update.UpdatedTs
	}
	if update.SetFolder {
		conversation.FolderID = update.FolderID
	}
	copied := *conversation
	return &copied, nil
}

func (d *memoryDriver) DeleteConversation(_ context.Context, del *store.DeleteConversation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conversationID := del.ID
	if _, ok := d.conversations[conversationID]; !ok {
		return nil
	}
	for id, message := range d.messages {
		if message.ConversationID == conversationID {
			d.deleteMessageLocked(id)
		}
	}
	for id, engine := range d.engines {
		if engine.ConversationID == conversationID {
			delete(d.engines, id)
		}
	}
	delete(d.conversations, conversationID)
	return nil
}

func (d *memoryDriver) deleteMessageLocked(messageID int64) {
	for responseID, response := range d.responses {
		if response.UserMessageID == messageID {
			for blockID, block := range d.blocks {
				if block.ResponseID == responseID {
					delete(d.blocks, blockID)
				}
			}
			delete(d.responses, responseID)
		}
	}
	for preferredID, preferred := range d.preferred {
		if preferred.UserMessageID == messageID {
			delete(d.preferred, preferredID)
		}
	}
	delete(d.messages, messageID)
}

func (d *memoryDriver) CreateFolder(_ context.Context, create *store.Folder) (*store.Folder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	folder := *create
	folder.ID = d.id32()
	d.folders[folder.ID] = &folder
	copied := folder
	return &copied, nil
}

func (d *memoryDriver) ListFolders(_ context.Context, find *store.FindFolder) ([]*store.Folder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []*store.Folder{}
	for _, folder := range d.folders {
		if find.ID != nil && folder.ID != *find.ID {
			continue
		}
		if find.UID != nil && folder.UID != *find.UID {
			continue
		}
		if find.CreatorID != nil && folder.CreatorID != *find.CreatorID {
			continue
		}
		if find.ParentID != nil && (folder.ParentID == nil || *folder.ParentID != *find.ParentID) {
			continue
		}
		copied := *folder
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (d *memoryDriver) UpdateFolder(_ context.Context, update *store.UpdateFolder) (*store.Folder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	folder, ok := d.folders[update.ID]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		folder.Name = *update.Name
	}
	if update.Color != nil {
		folder.Color = *update.Color
	}
	if update.ParentID != nil {
		folder.ParentID = update.ParentID
	}
	copied := *folder
	return &copied, nil
}

func (d *memoryDriver) DeleteFolder(_ context.Context, del *store.DeleteFolder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleteFolderLocked(del.ID)
	return nil
}

// deleteFolderLocked cascades to child folders and detaches conversations.
func (d *memoryDriver) deleteFolderLocked(folderID int32) {
	for id, folder := range d.folders {
		if folder.ParentID != nil && *folder.ParentID == folderID {
			d.deleteFolderLocked(id)
		}
	}
	for _, conversation := range d.conversations {
		if conversation.FolderID != nil && *conversation.FolderID == folderID {
			conversation.FolderID = nil
		}
	}
	delete(d.folders, folderID)
}

func (d *memoryDriver) CreateUserMessage(_ context.Context, create *store.CreateUserMessage) (*store.UserMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var maxTurn int32
	for _, message := range d.messages {
		if message.ConversationID == create.ConversationID && message.TurnNumber > maxTurn {
			maxTurn = message.TurnNumber
		}
	}
	message := &store.UserMessage{
		UID:            create.UID,
		ConversationID: create.ConversationID,
		TurnNumber:     maxTurn + 1,
		Content:        create.Content,
		Attachments:    create.Attachments,
		CreatedTs:      create.CreatedTs,
		ID:             d.id64(),
	}
	d.messages[message.ID] = message
	copied := *message
	return &copied, nil
}

func (d *memoryDriver) ListUserMessages(_ context.Context, find *store.FindUserMessage) ([]*store.UserMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []*store.UserMessage{}
	for _, message := range d.messages {
		if find.ID != nil && message.ID != *find.ID {
			continue
		}
		if find.UID != nil && message.UID != *find.UID {
			continue
		}
		if find.ConversationID != nil && message.ConversationID != *find.ConversationID {
			continue
		}
		if find.TurnNumber != nil && message.TurnNumber != *find.TurnNumber {
			continue
		}
		copied := *message
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ConversationID != result[j].ConversationID {
			return result[i].ConversationID < result[j].ConversationID
		}
		return result[i].TurnNumber < result[j].TurnNumber
	})
	return result, nil
}

func (d *memoryDriver) CreateEngineResponse(_ context.Context, create *store.CreateEngineResponse) (*store.EngineResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	response := &store.EngineResponse{
		UID:           create.UID,
		UserMessageID: create.UserMessageID,
		Engine:        create.Engine,
		Provider:      create.Provider,
		Error:         create.Error,
		LatencyMs:     create.LatencyMs,
		InputTokens:   create.InputTokens,
		OutputTokens:  create.OutputTokens,
		CostUSD:       create.CostUSD,
		CreatedTs:     create.CreatedTs,
		ID:            d.id64(),
	}
	for i, blockCreate := range create.Blocks {
		block := &store.ResponseBlock{
			ID:         d.id64(),
			ResponseID: response.ID,
			BlockIndex: int32(i),
			Type:       blockCreate.Type,
			Content:    blockCreate.Content,
			Metadata:   blockCreate.Metadata,
		}
		d.blocks[block.ID] = block
		response.Blocks = append(response.Blocks, block)
	}
	d.responses[response.ID] = response
	copied := *response
	return &copied, nil
}

func (d *memoryDriver) ListEngineResponses(_ context.Context, find *store.FindEngineResponse) ([]*store.EngineResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []*store.EngineResponse{}
	for _, response := range d.responses {
		if find.ID != nil && response.ID != *find.ID {
			continue
		}
		if find.UID != nil && response.UID != *find.UID {
			continue
		}
		if find.UserMessageID != nil && response.UserMessageID != *find.UserMessageID {
			continue
		}
		if find.Engine != nil && response.Engine != *find.Engine {
			continue
		}
		copied := *response
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (d *memoryDriver) ListResponseBlocks(_ context.Context, find *store.FindResponseBlock) ([]*store.ResponseBlock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []*store.ResponseBlock{}
	for _, block := range d.blocks {
		if find.ID != nil && block.ID != *find.ID {
			continue
		}
		if find.ResponseID != nil && block.ResponseID != *find.ResponseID {
			continue
		}
		if find.Type != nil && block.Type != *find.Type {
			continue
		}
		copied := *block
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ResponseID != result[j].ResponseID {
			return result[i].ResponseID < result[j].ResponseID
		}
		return result[i].BlockIndex < result[j].BlockIndex
	})
	return result, nil
}

func (d *memoryDriver) DeleteResponseBlock(_ context.Context, del *store.DeleteResponseBlock) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for preferredID, preferred := range d.preferred {
		if preferred.BlockID == del.ID {
			delete(d.preferred, preferredID)
		}
	}
	delete(d.blocks, del.ID)
	return nil
}

func (d *memoryDriver) CreatePreferredBlock(_ context.Context, create *store.CreatePreferredBlock) (*store.PreferredBlock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var maxOrder int32
	for _, preferred := range d.preferred {
		if preferred.UserMessageID == create.UserMessageID {
			if preferred.BlockID == create.BlockID {
				return nil, store.ErrAlreadySelected
			}
			if preferred.SelectionOrder > maxOrder {
				maxOrder = preferred.SelectionOrder
			}
		}
	}
	preferred := &store.PreferredBlock{
		ID:             d.id64(),
		ConversationID: create.ConversationID,
		UserMessageID:  create.UserMessageID,
		BlockID:        create.BlockID,
		SelectionOrder: maxOrder + 1,
		CreatedTs:      create.CreatedTs,
	}
	d.preferred[preferred.ID] = preferred
	copied := *preferred
	return &copied, nil
}

func (d *memoryDriver) ListPreferredBlocks(_ context.Context, find *store.FindPreferredBlock) ([]*store.PreferredBlock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []*store.PreferredBlock{}
	for _, preferred := range d.preferred {
		if find.ID != nil && preferred.ID != *find.ID {
			continue
		}
		if find.ConversationID != nil && preferred.ConversationID != *find.ConversationID {
			continue
		}
		if find.UserMessageID != nil && preferred.UserMessageID != *find.UserMessageID {
			continue
		}
		if find.BlockID != nil && preferred.BlockID != *find.BlockID {
			continue
		}
		copied := *preferred
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SelectionOrder < result[j].SelectionOrder })
	return result, nil
}

func (d *memoryDriver) DeletePreferredBlock(_ context.Context, del *store.DeletePreferredBlock) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, preferred := range d.preferred {
		if preferred.UserMessageID == del.UserMessageID && preferred.BlockID == del.BlockID {
			delete(d.preferred, id)
		}
	}
	return nil
}

func (d *memoryDriver) SetPreferredBlockOrders(_ context.Context, userMessageID int64, orderedBlockIDs []int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for position, blockID := range orderedBlockIDs {
		for _, preferred := range d.preferred {
			if preferred.UserMessageID == userMessageID && preferred.BlockID == blockID {
				preferred.SelectionOrder = int32(position) + 1
			}
		}
	}
	return nil
}

func (d *memoryDriver) ListSelectedBlocks(_ context.Context, find *store.FindSelectedBlock) ([]*store.SelectedBlock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []*store.SelectedBlock{}
	for _, preferred := range d.preferred {
		if find.ConversationID != nil && preferred.ConversationID != *find.ConversationID {
			continue
		}
		if find.UserMessageID != nil && preferred.UserMessageID != *find.UserMessageID {
			continue
		}
		block, ok := d.blocks[preferred.BlockID]
		if !ok {
			continue
		}
		response := d.responses[block.ResponseID]
		message := d.messages[preferred.UserMessageID]
		result = append(result, &store.SelectedBlock{
			BlockID:        block.ID,
			ResponseID:     block.ResponseID,
			UserMessageID:  preferred.UserMessageID,
			TurnNumber:     message.TurnNumber,
			SelectionOrder: preferred.SelectionOrder,
			Type:           block.Type,
			Content:        block.Content,
			Metadata:       block.Metadata,
			Engine:         response.Engine,
			Provider:       response.Provider,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TurnNumber != result[j].TurnNumber {
			return result[i].TurnNumber < result[j].TurnNumber
		}
		return result[i].SelectionOrder < result[j].SelectionOrder
	})
	return result, nil
}

func (d *memoryDriver) UpsertConversationEngine(_ context.Context, upsert *store.UpsertConversationEngine) (*store.ConversationEngine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, engine := range d.engines {
		if engine.ConversationID == upsert.ConversationID && engine.Engine == upsert.Engine {
			engine.Provider = upsert.Provider
			engine.AddedTs = upsert.AddedTs
			engine.RemovedTs = nil
			copied := *engine
			return &copied, nil
		}
	}
	engine := &store.ConversationEngine{
		ID:             d.id64(),
		ConversationID: upsert.ConversationID,
		Engine:         upsert.Engine,
		Provider:       upsert.Provider,
		AddedTs:        upsert.AddedTs,
	}
	d.engines[engine.ID] = engine
	copied := *engine
	return &copied, nil
}

func (d *memoryDriver) ListConversationEngines(_ context.Context, find *store.FindConversationEngine) ([]*store.ConversationEngine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := []*store.ConversationEngine{}
	for _, engine := range d.engines {
		if find.ConversationID != nil && engine.ConversationID != *find.ConversationID {
			continue
		}
		if find.Engine != nil && engine.Engine != *find.Engine {
			continue
		}
		if find.ActiveOnly && engine.RemovedTs != nil {
			continue
		}
		copied := *engine
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (d *memoryDriver) RemoveConversationEngine(_ context.Context, remove *store.RemoveConversationEngine) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, engine := range d.engines {
		if engine.ConversationID == remove.ConversationID && engine.Engine == remove.Engine {
			removedTs := remove.RemovedTs
			engine.RemovedTs = &removedTs
		}
	}
	return nil
}
