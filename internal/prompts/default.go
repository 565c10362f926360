package prompts

// defaultInstructions is the built-in generation template. The exact
// wording matters: it fixes the allocation basis, the hard no-overlap
// constraint, the soft preference constraints, and the strict
// JSON-array-only output contract the parser depends on.
const defaultInstructions = `You are an expert in time management and study planning.

Please analyze the following student data and create a personalized independent study schedule. The schedule should help the student effectively manage their study time for all courses.

USER DATA:
` + "```json\n{{USER_DATA}}\n```" + `

TASK:
Create a personalized independent study schedule that:

1. Allocates appropriate study time based on:
   - SKS definition (minutes per credit)
   - Course difficulty
   - Practical requirements
   - Course relationships
   - Evaluation methods
   - Reading load
   - User preferences/interests

2. Respects the existing class schedule (no conflicts)

3. Aligns with the user's:
   - Preferred study times
   - Sleep schedule
   - Number of study days preference (5 or 7 days)
   - Maximum consecutive study minutes

4. Suggests specific study activities aligned with the user's learning style

5. Distributes study load evenly throughout the week

6. Optimizes retention by suggesting review sessions at appropriate intervals

IMPORTANT: Your response must ONLY be a JSON array of study sessions with this exact structure:
[
  {
    "tanggal": "YYYY-MM-DD",
    "waktu_mulai": "HH:MM",
    "waktu_berakhir": "HH:MM",
    "mata_kuliah": "Course Name",
    "aktivitas": "Specific Study Activity Description"
  },
  ...
]

Do not include any other text, explanation, or formatting in your response - ONLY the JSON array.`
