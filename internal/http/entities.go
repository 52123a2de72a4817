package http

import (
	"net/http"

	"conservadora/internal/entity"
	"conservadora/internal/log"
	"conservadora/internal/table"
)

// validatable records check their required fields before being sent.
type validatable interface {
	entity.Record
	Validate() error
}

// registerEntity mounts list, get, create, update and delete for one store
// under path.
func registerEntity[T validatable](mux *http.ServeMux, path string, store entity.Writer[T]) {
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Data(store.List()).Write(w)
	})
	mux.HandleFunc("GET "+path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		getRecord[T](w, r, store)
	})

	mux.HandleFunc("POST "+path, func(w http.ResponseWriter, r *http.Request) {
		var rec T
		if err := decodeJSON(w, r, &rec); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		if err := rec.Validate(); err != nil {
			ValidationError(err).Write(w)
			return
		}
		created, err := store.Create(r.Context(), rec)
		if err != nil {
			logFailure(r, log.OpCreate, "", err)
			errorResponse(err).Write(w)
			return
		}
		NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
	})

	mux.HandleFunc("PATCH "+path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var patch table.Fields
		if err := decodeJSON(w, r, &patch); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		delete(patch, table.IDColumn)

		if current, ok := store.Get(id); ok {
			if err := validatePatch(current, patch); err != nil {
				ValidationError(err).Write(w)
				return
			}
		}
		updated, err := store.Update(r.Context(), id, patch)
		if err != nil {
			logFailure(r, log.OpUpdate, id, err)
			errorResponse(err).Write(w)
			return
		}
		NewJSONResponse().Data(updated).Write(w)
	})

	mux.HandleFunc("DELETE "+path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := store.Delete(r.Context(), id); err != nil {
			logFailure(r, log.OpDelete, id, err)
			errorResponse(err).Write(w)
			return
		}
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
	})
}

// registerReadOnly mounts list and get for a store without mutations.
func registerReadOnly[T entity.Record](mux *http.ServeMux, path string, store entity.Reader[T]) {
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Data(store.List()).Write(w)
	})
	mux.HandleFunc("GET "+path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		getRecord[T](w, r, store)
	})
}

func getRecord[T entity.Record](w http.ResponseWriter, r *http.Request, store entity.Reader[T]) {
	rec, ok := store.Get(r.PathValue("id"))
	if !ok {
		NotFoundError("registro não encontrado").Write(w)
		return
	}
	NewJSONResponse().Data(rec).Write(w)
}

// validatePatch applies patch to a copy of current and validates the result.
func validatePatch[T validatable](current T, patch table.Fields) error {
	merged, err := table.FieldsOf(current)
	if err != nil {
		return err
	}
	for k, v := range patch {
		merged[k] = v
	}
	next, err := table.Decode[T](merged)
	if err != nil {
		return err
	}
	return next.Validate()
}

func logFailure(r *http.Request, op, id string, err error) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Mutation failed",
		log.FieldOperation, op,
		log.FieldRecordID, id,
		log.FieldError, err)
}
